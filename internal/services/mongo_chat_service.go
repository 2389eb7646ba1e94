package services

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
)

type MongoChatService struct {
	client      *mongo.Client
	db          *mongo.Database
	chatsCol    *mongo.Collection
	messagesCol *mongo.Collection
}

func NewMongoChatService(ctx context.Context, mongoURI, dbName string) (*MongoChatService, error) {
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
	s := &MongoChatService{
		client:      client,
		db:          db,
		chatsCol:    db.Collection("chats"),
		messagesCol: db.Collection("messages"),
	}

	// Best-effort indexes.
	_, _ = s.chatsCol.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "participants", Value: 1}},
	})
	_, _ = s.messagesCol.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "to_user_id", Value: 1}, {Key: "read", Value: 1}}},
	})

	return s, nil
}

func (s *MongoChatService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoChatService) EnsureChat(ctx context.Context, a, b string) (*models.Chat, error) {
	id := models.ChatID(a, b)
	now := time.Now().UTC()

	_, err := s.chatsCol.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$setOnInsert": bson.M{
			"participants": []string{a, b},
			"created_at":   now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, err
	}

	return s.get(ctx, id)
}

func (s *MongoChatService) get(ctx context.Context, chatID string) (*models.Chat, error) {
	var chat models.Chat
	if err := s.chatsCol.FindOne(ctx, bson.M{"_id": chatID}).Decode(&chat); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return &chat, nil
}

func (s *MongoChatService) ChatsFor(ctx context.Context, userID string) ([]*models.Chat, error) {
	cur, err := s.chatsCol.Find(
		ctx,
		bson.M{"participants": userID},
		options.Find().SetSort(bson.D{{Key: "last_message.created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Chat, 0)
	for cur.Next(ctx) {
		var chat models.Chat
		if err := cur.Decode(&chat); err != nil {
			return nil, err
		}
		out = append(out, &chat)
	}
	return out, cur.Err()
}

func (s *MongoChatService) Messages(ctx context.Context, chatID, userID string) ([]*models.Message, error) {
	chat, err := s.get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}

	cur, err := s.messagesCol.Find(
		ctx,
		bson.M{"chat_id": chatID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Message, 0)
	for cur.Next(ctx) {
		var msg models.Message
		if err := cur.Decode(&msg); err != nil {
			return nil, err
		}
		out = append(out, &msg)
	}
	return out, cur.Err()
}

func (s *MongoChatService) SendMessage(ctx context.Context, chatID, fromID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	chat, err := s.get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(fromID) {
		return nil, ErrNotParticipant
	}

	msg := &models.Message{
		ID:         uuid.New().String(),
		ChatID:     chatID,
		FromUserID: fromID,
		ToUserID:   chat.Peer(fromID),
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := s.messagesCol.InsertOne(ctx, msg); err != nil {
		return nil, err
	}
	// Denormalized preview for chat lists; best effort.
	_, _ = s.chatsCol.UpdateOne(ctx, bson.M{"_id": chatID}, bson.M{
		"$set": bson.M{"last_message": msg},
	})

	return msg, nil
}

func (s *MongoChatService) MarkRead(ctx context.Context, chatID, userID string) (int64, error) {
	chat, err := s.get(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if !chat.HasParticipant(userID) {
		return 0, ErrNotParticipant
	}

	res, err := s.messagesCol.UpdateMany(
		ctx,
		bson.M{"chat_id": chatID, "to_user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	_, _ = s.chatsCol.UpdateOne(
		ctx,
		bson.M{"_id": chatID, "last_message.to_user_id": userID},
		bson.M{"$set": bson.M{"last_message.read": true}},
	)
	return res.ModifiedCount, nil
}

func (s *MongoChatService) DeleteFor(ctx context.Context, userID string) error {
	cur, err := s.chatsCol.Find(ctx, bson.M{"participants": userID})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	ids := make([]string, 0)
	for cur.Next(ctx) {
		var chat models.Chat
		if err := cur.Decode(&chat); err != nil {
			return err
		}
		ids = append(ids, chat.ID)
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if _, err := s.messagesCol.DeleteMany(ctx, bson.M{"chat_id": bson.M{"$in": ids}}); err != nil {
		return err
	}
	_, err = s.chatsCol.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}
