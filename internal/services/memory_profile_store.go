package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/storage"
)

// profileSnapshot is the JSON shape persisted to disk.
type profileSnapshot struct {
	Records     map[string]*models.ProfileRecord `json:"records"`
	TeachSkills map[string][]models.TeachSkill   `json:"teach_skills"`
	LearnSkills map[string][]string              `json:"learn_skills"`
	Interests   map[string][]string              `json:"interests"`
}

// MemoryProfileStore keeps profiles in memory with an optional JSON snapshot
// for restarts. Suitable for development and tests.
type MemoryProfileStore struct {
	mu          sync.RWMutex
	records     map[string]*models.ProfileRecord
	teachSkills map[string][]models.TeachSkill
	learnSkills map[string][]string
	interests   map[string][]string
	snapshot    *storage.JSONStore
	log         *zap.Logger
}

// NewMemoryProfileStore loads any existing snapshot. snapshot may be nil.
func NewMemoryProfileStore(snapshot *storage.JSONStore, log *zap.Logger) (*MemoryProfileStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	s := &MemoryProfileStore{
		records:     make(map[string]*models.ProfileRecord),
		teachSkills: make(map[string][]models.TeachSkill),
		learnSkills: make(map[string][]string),
		interests:   make(map[string][]string),
		snapshot:    snapshot,
		log:         log,
	}

	if snapshot != nil {
		var stored profileSnapshot
		if err := snapshot.Load(&stored); err != nil {
			return nil, err
		}
		if stored.Records != nil {
			s.records = stored.Records
		}
		if stored.TeachSkills != nil {
			s.teachSkills = stored.TeachSkills
		}
		if stored.LearnSkills != nil {
			s.learnSkills = stored.LearnSkills
		}
		if stored.Interests != nil {
			s.interests = stored.Interests
		}
	}

	return s, nil
}

func (s *MemoryProfileStore) Get(ctx context.Context, userID string) (*models.ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[userID]
	if !exists {
		return nil, ErrProfileNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryProfileStore) GetByEmail(ctx context.Context, email string) (*models.ProfileRecord, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if strings.ToLower(rec.Email) == email {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (s *MemoryProfileStore) Upsert(ctx context.Context, userID string, defaults ProfileDefaults, req *models.UpdateProfileRequest) (*models.ProfileRecord, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[userID]
	if !exists {
		rec = &models.ProfileRecord{
			UserID:    userID,
			Email:     defaults.Email,
			Name:      defaults.Name,
			CreatedAt: now,
		}
		s.records[userID] = rec
	}
	if defaults.Email != "" {
		rec.Email = defaults.Email
	}

	applyScalarFields(rec, req)
	rec.UpdatedAt = now
	s.persistLocked()

	cp := *rec
	return &cp, nil
}

func (s *MemoryProfileStore) List(ctx context.Context) ([]*models.ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ProfileRecord, 0, len(s.records))
	for _, rec := range s.records {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryProfileStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, userID)
	delete(s.teachSkills, userID)
	delete(s.learnSkills, userID)
	delete(s.interests, userID)
	s.persistLocked()
	return nil
}

func (s *MemoryProfileStore) TeachSkills(ctx context.Context, userID string) ([]models.TeachSkill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TeachSkill(nil), s.teachSkills[userID]...), nil
}

func (s *MemoryProfileStore) LearnSkills(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.learnSkills[userID]...), nil
}

func (s *MemoryProfileStore) Interests(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.interests[userID]...), nil
}

func (s *MemoryProfileStore) ReplaceTeachSkills(ctx context.Context, userID string, skills []models.TeachSkill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teachSkills[userID] = append([]models.TeachSkill(nil), skills...)
	s.persistLocked()
	return nil
}

func (s *MemoryProfileStore) ReplaceLearnSkills(ctx context.Context, userID string, skills []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learnSkills[userID] = append([]string(nil), skills...)
	s.persistLocked()
	return nil
}

func (s *MemoryProfileStore) ReplaceInterests(ctx context.Context, userID string, interests []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interests[userID] = append([]string(nil), interests...)
	s.persistLocked()
	return nil
}

func (s *MemoryProfileStore) persistLocked() {
	if s.snapshot == nil {
		return
	}
	snap := profileSnapshot{
		Records:     s.records,
		TeachSkills: s.teachSkills,
		LearnSkills: s.learnSkills,
		Interests:   s.interests,
	}
	if err := s.snapshot.Save(snap); err != nil {
		s.log.Warn("profile snapshot save failed", zap.Error(err))
	}
}

// applyScalarFields merges the non-nil scalar fields of req into rec.
func applyScalarFields(rec *models.ProfileRecord, req *models.UpdateProfileRequest) {
	if req == nil {
		return
	}
	if req.Name != nil {
		rec.Name = *req.Name
	}
	if req.DateOfBirth != nil {
		rec.DateOfBirth = *req.DateOfBirth
	}
	if req.Gender != nil {
		rec.Gender = *req.Gender
	}
	if req.SchoolOrJob != nil {
		rec.SchoolOrJob = *req.SchoolOrJob
	}
	if req.Location != nil {
		rec.Location = *req.Location
	}
	if req.Bio != nil {
		rec.Bio = *req.Bio
	}
	if req.ProfileImage != nil {
		rec.ProfileImage = *req.ProfileImage
	}
}
