package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/auth"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/config"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/services"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/session"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/storage"
)

// Seeds a local data directory with two demo accounts, a connection between
// them and a short chat, by driving the same session flow a client uses.
func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load()
	ctx := context.Background()

	accountSnap, err := storage.NewJSONStore(cfg.DataDir, "accounts.json")
	if err != nil {
		log.Fatal("opening account snapshot", zap.Error(err))
	}
	provider, err := auth.NewLocalProvider(auth.LocalProviderConfig{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.JWTExpiration,
	}, accountSnap, services.NopMailer{}, log)
	if err != nil {
		log.Fatal("initializing auth provider", zap.Error(err))
	}

	profileSnap, err := storage.NewJSONStore(cfg.DataDir, "profiles.json")
	if err != nil {
		log.Fatal("opening profile snapshot", zap.Error(err))
	}
	profiles, err := services.NewMemoryProfileStore(profileSnap, log)
	if err != nil {
		log.Fatal("initializing profile store", zap.Error(err))
	}
	chats := services.NewMemoryChatService()
	connections := services.NewMemoryConnectionService(chats)

	resolver := services.NewProfileResolver(profiles, connections, log)
	pipeline := services.NewProfileMutationPipeline(profiles, resolver, log)

	ctrl := session.NewController(provider, profiles, resolver, pipeline, log)
	if err := ctrl.Start(ctx); err != nil {
		log.Fatal("starting session controller", zap.Error(err))
	}
	defer ctrl.Close()

	aliceID := seedUser(ctx, ctrl, log, "alice@example.com", "Alice Johnson", aliceProfile())
	ctrl.SignOut(ctx)
	bobID := seedUser(ctx, ctrl, log, "bob@example.com", "Bob Smith", bobProfile())

	req, err := connections.SendRequest(ctx, aliceID, bobID, "Hi Bob! Want to trade skills?")
	if err != nil {
		log.Fatal("sending connection request", zap.Error(err))
	}
	if _, err := connections.Accept(ctx, bobID, req.ID); err != nil {
		log.Fatal("accepting connection request", zap.Error(err))
	}

	chatID := models.ChatID(aliceID, bobID)
	send(ctx, chats, log, chatID, aliceID,
		"Hi Bob! I saw you teach Python. I'd love to learn more about machine learning.")
	time.Sleep(10 * time.Millisecond)
	send(ctx, chats, log, chatID, bobID,
		"Hi Alice! I'd be happy to help you with ML. Maybe we can trade - I'm interested in learning React!")
	if _, err := chats.MarkRead(ctx, chatID, aliceID); err != nil {
		log.Fatal("marking chat read", zap.Error(err))
	}
	if _, err := chats.MarkRead(ctx, chatID, bobID); err != nil {
		log.Fatal("marking chat read", zap.Error(err))
	}

	snap := ctrl.Snapshot()
	log.Info("seed complete",
		zap.String("alice_id", aliceID),
		zap.String("bob_id", bobID),
		zap.String("chat_id", chatID),
		zap.String("final_state", string(snap.State)),
	)
}

func seedUser(ctx context.Context, ctrl *session.Controller, log *zap.Logger, email, name string, req *models.UpdateProfileRequest) string {
	if _, err := ctrl.SignUp(ctx, email, "password123", auth.Metadata{Name: name}); err != nil {
		log.Fatal("signing up", zap.String("email", email), zap.Error(err))
	}
	snap := ctrl.Snapshot()
	if snap.State != session.StateProfileSetup {
		log.Fatal("unexpected state after sign-up", zap.String("state", string(snap.State)))
	}

	prof, err := ctrl.UpdateProfile(ctx, req)
	if err != nil {
		log.Fatal("saving profile", zap.String("email", email), zap.Error(err))
	}
	log.Info("seeded user", zap.String("email", email), zap.String("user_id", prof.UserID))
	return prof.UserID
}

func send(ctx context.Context, chats services.ChatService, log *zap.Logger, chatID, from, content string) {
	if _, err := chats.SendMessage(ctx, chatID, from, content); err != nil {
		log.Fatal("sending message", zap.String("chat_id", chatID), zap.Error(err))
	}
}

func aliceProfile() *models.UpdateProfileRequest {
	return &models.UpdateProfileRequest{
		Name:        str("Alice Johnson"),
		DateOfBirth: str("1995-03-15"),
		Gender:      str(models.GenderFemale),
		SchoolOrJob: str("Software Engineer at TechCorp"),
		Location:    str("San Francisco, CA"),
		Bio:         str("Passionate about web development and teaching others. Love hiking and photography in my free time."),
		SkillsToTeach: skills(
			models.TeachSkill{Name: "React", Rating: 5, Description: "Expert in React development with 5+ years experience"},
			models.TeachSkill{Name: "TypeScript", Rating: 4, Description: "Strong TypeScript skills for scalable applications"},
		),
		SkillsToLearn: list("Python", "Machine Learning"),
		Interests:     list("Photography", "Hiking", "Cooking"),
	}
}

func bobProfile() *models.UpdateProfileRequest {
	return &models.UpdateProfileRequest{
		Name:        str("Bob Smith"),
		DateOfBirth: str("1990-07-20"),
		Gender:      str(models.GenderMale),
		SchoolOrJob: str("Data Scientist at DataCorp"),
		Location:    str("New York, NY"),
		Bio:         str("Data science enthusiast with a passion for AI and machine learning. Always excited to share knowledge."),
		SkillsToTeach: skills(
			models.TeachSkill{Name: "Python", Rating: 5, Description: "Expert Python developer with ML experience"},
			models.TeachSkill{Name: "Machine Learning", Rating: 4, Description: "Practical ML applications and algorithms"},
		),
		SkillsToLearn: list("JavaScript", "React"),
		Interests:     list("Gaming", "Reading", "Basketball"),
	}
}

func str(s string) *string { return &s }

func skills(in ...models.TeachSkill) *[]models.TeachSkill { return &in }

func list(in ...string) *[]string { return &in }
