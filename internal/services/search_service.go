package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
)

// SearchService filters the user directory. Scalar filters run over the
// profile records; skill and interest filters need the sub-collections, so
// matching happens here after the candidate set is narrowed.
type SearchService struct {
	store    ProfileStore
	resolver *ProfileResolver
	log      *zap.Logger
}

func NewSearchService(store ProfileStore, resolver *ProfileResolver, log *zap.Logger) *SearchService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SearchService{store: store, resolver: resolver, log: log}
}

// Search returns public profiles matching the filters, always excluding the
// viewer. Text filters are case-insensitive substring matches.
func (s *SearchService) Search(ctx context.Context, viewerID string, filters models.SearchFilters) ([]models.PublicProfile, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.PublicProfile, 0)
	for _, rec := range records {
		if rec.UserID == viewerID {
			continue
		}
		if !matchScalar(rec, filters) {
			continue
		}

		prof, err := s.resolver.ResolveID(ctx, rec.UserID)
		if err != nil {
			s.log.Warn("skipping unresolvable profile", zap.String("user_id", rec.UserID), zap.Error(err))
			continue
		}
		if !matchLists(prof, filters) {
			continue
		}
		out = append(out, prof.Public())
	}
	return out, nil
}

func matchScalar(rec *models.ProfileRecord, f models.SearchFilters) bool {
	if f.Location != "" && !containsFold(rec.Location, f.Location) {
		return false
	}
	if f.Gender != "" && rec.Gender != f.Gender {
		return false
	}
	if f.MinAge > 0 || f.MaxAge > 0 {
		age, ok := ageFromDOB(rec.DateOfBirth)
		if !ok {
			return false
		}
		if f.MinAge > 0 && age < f.MinAge {
			return false
		}
		if f.MaxAge > 0 && age > f.MaxAge {
			return false
		}
	}
	return true
}

func matchLists(prof *models.Profile, f models.SearchFilters) bool {
	if len(f.SkillsToTeach) > 0 {
		names := make([]string, len(prof.SkillsToTeach))
		for i, sk := range prof.SkillsToTeach {
			names[i] = sk.Name
		}
		if !anyMatch(names, f.SkillsToTeach) {
			return false
		}
	}
	if len(f.SkillsToLearn) > 0 && !anyMatch(prof.SkillsToLearn, f.SkillsToLearn) {
		return false
	}
	if len(f.Interests) > 0 && !anyMatch(prof.Interests, f.Interests) {
		return false
	}
	return true
}

// anyMatch reports whether any candidate contains any of the wanted terms.
func anyMatch(candidates, wanted []string) bool {
	for _, c := range candidates {
		for _, w := range wanted {
			if containsFold(c, w) {
				return true
			}
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func ageFromDOB(dob string) (int, bool) {
	born, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return 0, false
	}
	now := time.Now().UTC()
	age := now.Year() - born.Year()
	if now.YearDay() < born.YearDay() {
		age--
	}
	return age, true
}
