package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
)

var (
	ErrRequestNotFound  = errors.New("connection request not found")
	ErrDuplicateRequest = errors.New("a request between these users already exists")
	ErrSelfRequest      = errors.New("cannot send a connection request to yourself")
	ErrNotRecipient     = errors.New("only the recipient can respond to a request")
	ErrRequestClosed    = errors.New("request has already been responded to")
	ErrMessageTooLong   = errors.New("request message exceeds the maximum length")
)

// ConnectionService manages directed connection requests. Accepting one makes
// the pair a symmetric connection and creates their (empty) chat; rejecting
// retains the request with status rejected.
type ConnectionService interface {
	SendRequest(ctx context.Context, fromID, toID, message string) (*models.ConnectionRequest, error)
	IncomingPending(ctx context.Context, userID string) ([]*models.ConnectionRequest, error)
	SentBy(ctx context.Context, userID string) ([]*models.ConnectionRequest, error)
	Accept(ctx context.Context, userID, requestID string) (*models.ConnectionRequest, error)
	Reject(ctx context.Context, userID, requestID string) (*models.ConnectionRequest, error)
	// AcceptedPeers returns, for each accepted request involving userID,
	// the other party's id.
	AcceptedPeers(ctx context.Context, userID string) ([]string, error)
	DeleteFor(ctx context.Context, userID string) error
}

// MemoryConnectionService is the in-memory ConnectionService.
type MemoryConnectionService struct {
	mu       sync.RWMutex
	requests map[string]*models.ConnectionRequest // requestID -> request
	byPair   map[string][]string                  // pair key -> requestIDs
	chats    ChatService
}

func NewMemoryConnectionService(chats ChatService) *MemoryConnectionService {
	return &MemoryConnectionService{
		requests: make(map[string]*models.ConnectionRequest),
		byPair:   make(map[string][]string),
		chats:    chats,
	}
}

func (s *MemoryConnectionService) SendRequest(ctx context.Context, fromID, toID, message string) (*models.ConnectionRequest, error) {
	if err := validateSendRequest(fromID, toID, message); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pair := models.ChatID(fromID, toID)
	for _, id := range s.byPair[pair] {
		if st := s.requests[id].Status; st == models.RequestPending || st == models.RequestAccepted {
			return nil, ErrDuplicateRequest
		}
	}

	req := &models.ConnectionRequest{
		ID:         uuid.New().String(),
		FromUserID: fromID,
		ToUserID:   toID,
		Message:    message,
		Status:     models.RequestPending,
		CreatedAt:  time.Now().UTC(),
	}
	s.requests[req.ID] = req
	s.byPair[pair] = append(s.byPair[pair], req.ID)

	cp := *req
	return &cp, nil
}

func (s *MemoryConnectionService) IncomingPending(ctx context.Context, userID string) ([]*models.ConnectionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ConnectionRequest, 0)
	for _, req := range s.requests {
		if req.ToUserID == userID && req.Status == models.RequestPending {
			cp := *req
			out = append(out, &cp)
		}
	}
	sortRequests(out)
	return out, nil
}

func (s *MemoryConnectionService) SentBy(ctx context.Context, userID string) ([]*models.ConnectionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ConnectionRequest, 0)
	for _, req := range s.requests {
		if req.FromUserID == userID {
			cp := *req
			out = append(out, &cp)
		}
	}
	sortRequests(out)
	return out, nil
}

func (s *MemoryConnectionService) Accept(ctx context.Context, userID, requestID string) (*models.ConnectionRequest, error) {
	s.mu.Lock()
	req, err := s.respondLocked(userID, requestID, models.RequestAccepted)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// Acceptance opens an empty chat between the pair.
	if _, err := s.chats.EnsureChat(ctx, req.FromUserID, req.ToUserID); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *MemoryConnectionService) Reject(ctx context.Context, userID, requestID string) (*models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.respondLocked(userID, requestID, models.RequestRejected)
}

func (s *MemoryConnectionService) respondLocked(userID, requestID, status string) (*models.ConnectionRequest, error) {
	req, exists := s.requests[requestID]
	if !exists {
		return nil, ErrRequestNotFound
	}
	if req.ToUserID != userID {
		return nil, ErrNotRecipient
	}
	if req.Status != models.RequestPending {
		return nil, ErrRequestClosed
	}

	req.Status = status
	req.RespondedAt = time.Now().UTC()
	cp := *req
	return &cp, nil
}

func (s *MemoryConnectionService) AcceptedPeers(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	peers := make([]string, 0)
	for _, req := range s.requests {
		if req.Status != models.RequestAccepted {
			continue
		}
		switch userID {
		case req.FromUserID:
			peers = append(peers, req.ToUserID)
		case req.ToUserID:
			peers = append(peers, req.FromUserID)
		}
	}
	sort.Strings(peers)
	return peers, nil
}

func (s *MemoryConnectionService) DeleteFor(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, req := range s.requests {
		if req.FromUserID == userID || req.ToUserID == userID {
			delete(s.requests, id)
		}
	}
	for pair, ids := range s.byPair {
		kept := ids[:0]
		for _, id := range ids {
			if _, ok := s.requests[id]; ok {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(s.byPair, pair)
		} else {
			s.byPair[pair] = kept
		}
	}
	return nil
}

func validateSendRequest(fromID, toID, message string) error {
	if fromID == toID {
		return ErrSelfRequest
	}
	if strings.TrimSpace(toID) == "" {
		return ErrRequestNotFound
	}
	if len(message) > models.MaxRequestMessageLen {
		return ErrMessageTooLong
	}
	return nil
}

func sortRequests(reqs []*models.ConnectionRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
}
