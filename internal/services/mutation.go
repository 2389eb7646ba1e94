package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/auth"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
)

// ProfileMutationPipeline applies partial profile updates. The first write
// for an identity creates the record, seeded with fields from the session.
// Sub-collections are replaced wholesale, one atomic swap each, but the steps
// are not transactional with each other: a failure partway leaves the earlier
// steps applied. That partial state is surfaced as an error, not rolled back.
type ProfileMutationPipeline struct {
	store    ProfileStore
	resolver *ProfileResolver
	log      *zap.Logger
}

func NewProfileMutationPipeline(store ProfileStore, resolver *ProfileResolver, log *zap.Logger) *ProfileMutationPipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileMutationPipeline{store: store, resolver: resolver, log: log}
}

// Apply merges the supplied scalar fields, replaces any supplied
// sub-collections and returns the re-resolved profile. The returned profile
// always reports ProfileComplete true: saving is what finishes setup.
func (p *ProfileMutationPipeline) Apply(ctx context.Context, sess *auth.Session, req *models.UpdateProfileRequest) (*models.Profile, error) {
	defaults := ProfileDefaults{
		Email: sess.Email,
		Name:  displayName(sess),
	}

	if _, err := p.store.Upsert(ctx, sess.UserID, defaults, req); err != nil {
		return nil, fmt.Errorf("profile upsert: %w", err)
	}

	if req.SkillsToTeach != nil {
		if err := p.store.ReplaceTeachSkills(ctx, sess.UserID, *req.SkillsToTeach); err != nil {
			p.log.Error("teach skills replace failed", zap.String("user_id", sess.UserID), zap.Error(err))
			return nil, fmt.Errorf("replace teach skills: %w", err)
		}
	}
	if req.SkillsToLearn != nil {
		if err := p.store.ReplaceLearnSkills(ctx, sess.UserID, *req.SkillsToLearn); err != nil {
			p.log.Error("learn skills replace failed", zap.String("user_id", sess.UserID), zap.Error(err))
			return nil, fmt.Errorf("replace learn skills: %w", err)
		}
	}
	if req.Interests != nil {
		if err := p.store.ReplaceInterests(ctx, sess.UserID, *req.Interests); err != nil {
			p.log.Error("interests replace failed", zap.String("user_id", sess.UserID), zap.Error(err))
			return nil, fmt.Errorf("replace interests: %w", err)
		}
	}

	prof := p.resolver.Resolve(ctx, sess)
	prof.ProfileComplete = true
	return prof, nil
}
