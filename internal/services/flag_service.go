package services

import (
	"context"
	"sync"
	"time"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
)

// FlagService records report strikes against users.
type FlagService interface {
	// AddStrike increments the strike counter for the user and returns the
	// updated record.
	AddStrike(ctx context.Context, userID string) (*models.UserFlag, error)
	Get(ctx context.Context, userID string) (*models.UserFlag, error)
	Delete(ctx context.Context, userID string) error
}

type MemoryFlagService struct {
	mu    sync.RWMutex
	flags map[string]*models.UserFlag
}

func NewMemoryFlagService() *MemoryFlagService {
	return &MemoryFlagService{flags: make(map[string]*models.UserFlag)}
}

func (s *MemoryFlagService) AddStrike(ctx context.Context, userID string) (*models.UserFlag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	f, ok := s.flags[userID]
	if !ok {
		f = &models.UserFlag{UserID: userID}
		s.flags[userID] = f
	}
	f.Strikes++
	f.LastStrikeAt = now
	f.UpdatedAt = now

	out := *f
	return &out, nil
}

func (s *MemoryFlagService) Get(ctx context.Context, userID string) (*models.UserFlag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flags[userID]
	if !ok {
		return nil, nil
	}
	out := *f
	return &out, nil
}

func (s *MemoryFlagService) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, userID)
	return nil
}
