package services

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
)

type MongoConnectionService struct {
	client      *mongo.Client
	db          *mongo.Database
	requestsCol *mongo.Collection
	chats       ChatService
}

type mongoRequestDoc struct {
	ID          string    `bson:"_id"`
	PairKey     string    `bson:"pair_key"`
	FromUserID  string    `bson:"from_user_id"`
	ToUserID    string    `bson:"to_user_id"`
	Message     string    `bson:"message,omitempty"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"created_at"`
	RespondedAt time.Time `bson:"responded_at,omitempty"`
}

func NewMongoConnectionService(ctx context.Context, mongoURI, dbName string, chats ChatService) (*MongoConnectionService, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	col := db.Collection("connection_requests")

	// Best-effort indexes. The partial unique index keeps at most one open
	// request per pair regardless of direction.
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status": bson.M{"$in": []string{models.RequestPending, models.RequestAccepted}},
				}),
		},
		{Keys: bson.D{{Key: "to_user_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "from_user_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})

	return &MongoConnectionService{
		client:      client,
		db:          db,
		requestsCol: col,
		chats:       chats,
	}, nil
}

func (s *MongoConnectionService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoConnectionService) SendRequest(ctx context.Context, fromID, toID, message string) (*models.ConnectionRequest, error) {
	if err := validateSendRequest(fromID, toID, message); err != nil {
		return nil, err
	}

	doc := mongoRequestDoc{
		ID:         uuid.New().String(),
		PairKey:    models.ChatID(fromID, toID),
		FromUserID: fromID,
		ToUserID:   toID,
		Message:    message,
		Status:     models.RequestPending,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := s.requestsCol.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}
	return requestFromDoc(&doc), nil
}

func (s *MongoConnectionService) IncomingPending(ctx context.Context, userID string) ([]*models.ConnectionRequest, error) {
	return s.find(ctx, bson.M{"to_user_id": userID, "status": models.RequestPending})
}

func (s *MongoConnectionService) SentBy(ctx context.Context, userID string) ([]*models.ConnectionRequest, error) {
	return s.find(ctx, bson.M{"from_user_id": userID})
}

func (s *MongoConnectionService) find(ctx context.Context, filter bson.M) ([]*models.ConnectionRequest, error) {
	cur, err := s.requestsCol.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.ConnectionRequest, 0)
	for cur.Next(ctx) {
		var doc mongoRequestDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, requestFromDoc(&doc))
	}
	return out, cur.Err()
}

func (s *MongoConnectionService) Accept(ctx context.Context, userID, requestID string) (*models.ConnectionRequest, error) {
	req, err := s.respond(ctx, userID, requestID, models.RequestAccepted)
	if err != nil {
		return nil, err
	}

	if _, err := s.chats.EnsureChat(ctx, req.FromUserID, req.ToUserID); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *MongoConnectionService) Reject(ctx context.Context, userID, requestID string) (*models.ConnectionRequest, error) {
	return s.respond(ctx, userID, requestID, models.RequestRejected)
}

func (s *MongoConnectionService) respond(ctx context.Context, userID, requestID, status string) (*models.ConnectionRequest, error) {
	var doc mongoRequestDoc
	if err := s.requestsCol.FindOne(ctx, bson.M{"_id": requestID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if doc.ToUserID != userID {
		return nil, ErrNotRecipient
	}

	now := time.Now().UTC()
	res, err := s.requestsCol.UpdateOne(
		ctx,
		bson.M{"_id": requestID, "status": models.RequestPending},
		bson.M{"$set": bson.M{"status": status, "responded_at": now}},
	)
	if err != nil {
		return nil, err
	}
	if res.ModifiedCount == 0 {
		// Another responder won the race or the request was already closed.
		return nil, ErrRequestClosed
	}

	doc.Status = status
	doc.RespondedAt = now
	return requestFromDoc(&doc), nil
}

func (s *MongoConnectionService) AcceptedPeers(ctx context.Context, userID string) ([]string, error) {
	cur, err := s.requestsCol.Find(ctx, bson.M{
		"status": models.RequestAccepted,
		"$or": []bson.M{
			{"from_user_id": userID},
			{"to_user_id": userID},
		},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	peers := make([]string, 0)
	for cur.Next(ctx) {
		var doc mongoRequestDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		if doc.FromUserID == userID {
			peers = append(peers, doc.ToUserID)
		} else {
			peers = append(peers, doc.FromUserID)
		}
	}
	return peers, cur.Err()
}

func (s *MongoConnectionService) DeleteFor(ctx context.Context, userID string) error {
	_, err := s.requestsCol.DeleteMany(ctx, bson.M{
		"$or": []bson.M{
			{"from_user_id": userID},
			{"to_user_id": userID},
		},
	})
	return err
}

func requestFromDoc(doc *mongoRequestDoc) *models.ConnectionRequest {
	return &models.ConnectionRequest{
		ID:          doc.ID,
		FromUserID:  doc.FromUserID,
		ToUserID:    doc.ToUserID,
		Message:     doc.Message,
		Status:      doc.Status,
		CreatedAt:   doc.CreatedAt,
		RespondedAt: doc.RespondedAt,
	}
}
