package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/auth"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
)

// ProfileResolver turns an authenticated identity into the assembled Profile
// a client renders. When the store has no record yet, or any load fails, it
// degrades to a placeholder built from identity metadata so the caller can
// always reach the profile-setup flow. The placeholder is never persisted;
// the first explicit save creates the record.
type ProfileResolver struct {
	store       ProfileStore
	connections ConnectionService
	log         *zap.Logger
}

func NewProfileResolver(store ProfileStore, connections ConnectionService, log *zap.Logger) *ProfileResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileResolver{store: store, connections: connections, log: log}
}

// Resolve never fails: errors degrade to the placeholder path.
func (r *ProfileResolver) Resolve(ctx context.Context, sess *auth.Session) *models.Profile {
	rec, err := r.store.Get(ctx, sess.UserID)
	if err != nil {
		if err != ErrProfileNotFound {
			r.log.Warn("profile fetch failed, using placeholder",
				zap.String("user_id", sess.UserID), zap.Error(err))
		}
		return r.placeholder(sess)
	}

	prof, err := r.assemble(ctx, rec)
	if err != nil {
		r.log.Warn("profile assembly failed, using placeholder",
			zap.String("user_id", sess.UserID), zap.Error(err))
		return r.placeholder(sess)
	}
	return prof
}

// ResolveID loads the assembled profile for a known user id. Unlike Resolve
// there is no session metadata to fall back on, so absence is an error.
func (r *ProfileResolver) ResolveID(ctx context.Context, userID string) (*models.Profile, error) {
	rec, err := r.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.assemble(ctx, rec)
}

func (r *ProfileResolver) assemble(ctx context.Context, rec *models.ProfileRecord) (*models.Profile, error) {
	teach, err := r.store.TeachSkills(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	learn, err := r.store.LearnSkills(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	interests, err := r.store.Interests(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	peers, err := r.connections.AcceptedPeers(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}

	prof := &models.Profile{
		ProfileRecord: *rec,
		SkillsToTeach: nonNilSkills(teach),
		SkillsToLearn: nonNilStrings(learn),
		Interests:     nonNilStrings(interests),
		Connections:   nonNilStrings(peers),
	}
	prof.ProfileComplete = prof.DeriveComplete()
	return prof, nil
}

func (r *ProfileResolver) placeholder(sess *auth.Session) *models.Profile {
	prof := &models.Profile{
		ProfileRecord: models.ProfileRecord{
			UserID:       sess.UserID,
			Email:        sess.Email,
			Name:         displayName(sess),
			ProfileImage: sess.AvatarURL,
		},
		SkillsToTeach: []models.TeachSkill{},
		SkillsToLearn: []string{},
		Interests:     []string{},
		Connections:   []string{},
	}
	prof.ProfileComplete = false
	return prof
}

// displayName prefers provider metadata, then the email's local part.
func displayName(sess *auth.Session) string {
	if name := strings.TrimSpace(sess.Name); name != "" {
		return name
	}
	if at := strings.IndexByte(sess.Email, '@'); at > 0 {
		return sess.Email[:at]
	}
	return ""
}

func nonNilSkills(in []models.TeachSkill) []models.TeachSkill {
	if in == nil {
		return []models.TeachSkill{}
	}
	return in
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
