package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// AccountService removes all data owned by a user across the stores. It works
// over the service interfaces so the same deletion path covers both the
// in-memory and Mongo backends.
type AccountService struct {
	profiles    ProfileStore
	connections ConnectionService
	chats       ChatService
	flags       FlagService
	log         *zap.Logger
}

func NewAccountService(profiles ProfileStore, connections ConnectionService, chats ChatService, flags FlagService, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{
		profiles:    profiles,
		connections: connections,
		chats:       chats,
		flags:       flags,
		log:         log,
	}
}

type DeleteAccountResult struct {
	ImageURLs []string `json:"image_urls"`
}

// DeleteAccount deletes everything associated with the user:
// - profile record and its skill/interest lists
// - connection requests sent or received
// - chats the user participates in, with their messages
// - report strikes
// It returns stored image URLs so the caller can clean up the blobs.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) (*DeleteAccountResult, error) {
	urls := make([]string, 0, 1)
	if rec, err := s.profiles.Get(ctx, userID); err == nil {
		if rec.ProfileImage != "" {
			urls = append(urls, rec.ProfileImage)
		}
	} else if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	if err := s.connections.DeleteFor(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.chats.DeleteFor(ctx, userID); err != nil {
		return nil, err
	}
	if s.flags != nil {
		if err := s.flags.Delete(ctx, userID); err != nil {
			s.log.Warn("deleting user flags", zap.String("user_id", userID), zap.Error(err))
		}
	}

	if err := s.profiles.Delete(ctx, userID); err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	s.log.Info("account deleted", zap.String("user_id", userID))
	return &DeleteAccountResult{ImageURLs: urls}, nil
}
