package services

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
)

type MongoFlagService struct {
	client *mongo.Client
	db     *mongo.Database
	col    *mongo.Collection
}

func NewMongoFlagService(ctx context.Context, mongoURI, dbName string) (*MongoFlagService, error) {
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
	col := db.Collection("user_flags")

	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoFlagService{client: client, db: db, col: col}, nil
}

func (s *MongoFlagService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoFlagService) AddStrike(ctx context.Context, userID string) (*models.UserFlag, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$inc": bson.M{"strikes": 1},
		"$set": bson.M{"last_strike_at": now, "updated_at": now},
		"$setOnInsert": bson.M{
			"user_id": userID,
		},
	}

	_, err := s.col.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, err
	}

	var out models.UserFlag
	if err := s.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MongoFlagService) Get(ctx context.Context, userID string) (*models.UserFlag, error) {
	var out models.UserFlag
	err := s.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MongoFlagService) Delete(ctx context.Context, userID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}
