package main

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/auth"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/config"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/handlers"
	appMiddleware "github.com/Lokesh-Karthik/Skilldom-testrepo/internal/middleware"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/services"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/storage"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load()
	ctx := context.Background()

	mailer := services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromEmail, cfg.SupportToEmail)

	provider, err := buildAuthProvider(ctx, cfg, mailer, log)
	if err != nil {
		log.Fatal("initializing auth provider", zap.Error(err))
	}

	chats, connections, profiles, flags, err := buildStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("initializing storage", zap.Error(err))
	}

	resolver := services.NewProfileResolver(profiles, connections, log)
	pipeline := services.NewProfileMutationPipeline(profiles, resolver, log)
	search := services.NewSearchService(profiles, resolver, log)
	accounts := services.NewAccountService(profiles, connections, chats, flags, log)
	recaptcha := services.NewRecaptchaVerifier(services.RecaptchaConfig{Secret: cfg.RecaptchaSecret}, log)

	avatars, err := buildAvatarStore(ctx, cfg)
	if err != nil {
		log.Fatal("initializing avatar storage", zap.Error(err))
	}

	authHandler := handlers.NewAuthHandler(provider, profiles, resolver, log)
	profileHandler := handlers.NewProfileHandler(profiles, resolver, pipeline, search, avatars, log)
	connectionHandler := handlers.NewConnectionHandler(connections, log)
	chatHandler := handlers.NewChatHandler(chats, log)
	accountHandler := handlers.NewAccountHandler(accounts, log)
	supportHandler := handlers.NewSupportHandler(recaptcha, mailer, flags, cfg.TrustProxyHeaders, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/signup", authHandler.SignUp)
		r.Post("/auth/signin", authHandler.SignIn)
		r.Post("/auth/reset-password", authHandler.ResetPassword)
		r.Get("/auth/federated/{provider}", authHandler.FederatedURL)
		r.Post("/support", supportHandler.SubmitSupportRequest)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.BearerAuth(provider))

			r.Get("/auth/session", authHandler.Session)
			r.Post("/auth/signout", authHandler.SignOut)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", profileHandler.GetProfile)
				r.Put("/", profileHandler.UpdateProfile)
				r.Post("/avatar", profileHandler.UploadAvatar)
			})
			r.Get("/users/{userId}", profileHandler.GetPublicProfile)
			r.Post("/users/search", profileHandler.Search)
			r.Post("/users/{userId}/report", supportHandler.ReportUser)

			r.Route("/connections", func(r chi.Router) {
				r.Post("/requests", connectionHandler.SendRequest)
				r.Get("/requests/incoming", connectionHandler.ListIncoming)
				r.Get("/requests/sent", connectionHandler.ListSent)
				r.Post("/requests/{requestId}/accept", connectionHandler.Accept)
				r.Post("/requests/{requestId}/reject", connectionHandler.Reject)
			})

			r.Route("/chats", func(r chi.Router) {
				r.Get("/", chatHandler.ListChats)
				r.Get("/{chatId}/messages", chatHandler.ListMessages)
				r.Post("/{chatId}/messages", chatHandler.SendMessage)
				r.Post("/{chatId}/read", chatHandler.MarkRead)
			})

			r.Delete("/account", accountHandler.DeleteAccount)
		})
	})

	// Serve locally uploaded avatars
	if cfg.GCSBucket == "" {
		workDir, _ := os.Getwd()
		filesDir := http.Dir(workDir + "/" + cfg.UploadDir)
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(filesDir)))
	}

	log.Info("Skilldom API server starting", zap.String("address", cfg.ServerAddress))
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func buildAuthProvider(ctx context.Context, cfg *config.Config, mailer *services.SendGridMailer, log *zap.Logger) (auth.Provider, error) {
	if cfg.FirebaseProjectID != "" {
		return auth.NewFirebaseProvider(ctx, auth.FirebaseProviderConfig{
			ProjectID:           cfg.FirebaseProjectID,
			CredentialsJSON:     cfg.FirebaseCredentials,
			WebAPIKey:           cfg.FirebaseWebAPIKey,
			BaseURL:             cfg.BaseURL,
			RequireConfirmation: cfg.RequireConfirmation,
		}, mailer, log)
	}

	snapshot, err := storage.NewJSONStore(cfg.DataDir, "accounts.json")
	if err != nil {
		return nil, err
	}
	return auth.NewLocalProvider(auth.LocalProviderConfig{
		JWTSecret:           cfg.JWTSecret,
		TokenTTL:            cfg.JWTExpiration,
		RequireConfirmation: cfg.RequireConfirmation,
		BaseURL:             cfg.BaseURL,
	}, snapshot, mailer, log)
}

func buildStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.ChatService, services.ConnectionService, services.ProfileStore, services.FlagService, error) {
	if cfg.MongoURI != "" {
		chats, err := services.NewMongoChatService(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		connections, err := services.NewMongoConnectionService(ctx, cfg.MongoURI, cfg.MongoDB, chats)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		profiles, err := services.NewMongoProfileStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		flags, err := services.NewMongoFlagService(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return chats, connections, profiles, flags, nil
	}

	snapshot, err := storage.NewJSONStore(cfg.DataDir, "profiles.json")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	profiles, err := services.NewMemoryProfileStore(snapshot, log)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	chats := services.NewMemoryChatService()
	connections := services.NewMemoryConnectionService(chats)
	return chats, connections, profiles, services.NewMemoryFlagService(), nil
}

func buildAvatarStore(ctx context.Context, cfg *config.Config) (services.AvatarStore, error) {
	if cfg.GCSBucket != "" {
		return services.NewGCSAvatarStore(ctx, cfg.GCSBucket)
	}
	return services.NewLocalAvatarStore(cfg.UploadDir), nil
}
