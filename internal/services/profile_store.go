package services

import (
	"context"
	"errors"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileDefaults carries identity-derived fields used to seed a record the
// first time it is written.
type ProfileDefaults struct {
	Email string
	Name  string
}

// ProfileStore persists scalar profile records and their dependent
// sub-collections. Each Replace call swaps a whole sub-collection atomically,
// so a failure leaves either the old or the new set, never an empty gap.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.ProfileRecord, error)
	GetByEmail(ctx context.Context, email string) (*models.ProfileRecord, error)
	// Upsert merges the non-nil scalar fields of req into the record,
	// creating it with defaults when missing.
	Upsert(ctx context.Context, userID string, defaults ProfileDefaults, req *models.UpdateProfileRequest) (*models.ProfileRecord, error)
	List(ctx context.Context) ([]*models.ProfileRecord, error)
	Delete(ctx context.Context, userID string) error

	TeachSkills(ctx context.Context, userID string) ([]models.TeachSkill, error)
	LearnSkills(ctx context.Context, userID string) ([]string, error)
	Interests(ctx context.Context, userID string) ([]string, error)
	ReplaceTeachSkills(ctx context.Context, userID string, skills []models.TeachSkill) error
	ReplaceLearnSkills(ctx context.Context, userID string, skills []string) error
	ReplaceInterests(ctx context.Context, userID string, interests []string) error
}
