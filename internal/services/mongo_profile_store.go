package services

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
)

// Sub-collection documents hold the whole list for a user in one document, so
// a replace is a single atomic write.
type teachSkillsDoc struct {
	UserID    string              `bson:"user_id"`
	Skills    []models.TeachSkill `bson:"skills"`
	UpdatedAt time.Time           `bson:"updated_at"`
}

type stringListDoc struct {
	UserID    string    `bson:"user_id"`
	Values    []string  `bson:"values"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type MongoProfileStore struct {
	client      *mongo.Client
	db          *mongo.Database
	profilesCol *mongo.Collection
	teachCol    *mongo.Collection
	learnCol    *mongo.Collection
	interestCol *mongo.Collection
}

func NewMongoProfileStore(ctx context.Context, mongoURI, dbName string) (*MongoProfileStore, error) {
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
	s := &MongoProfileStore{
		client:      client,
		db:          db,
		profilesCol: db.Collection("profiles"),
		teachCol:    db.Collection("teach_skills"),
		learnCol:    db.Collection("learn_skills"),
		interestCol: db.Collection("interests"),
	}

	// Best-effort indexes.
	_, _ = s.profilesCol.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	})
	for _, col := range []*mongo.Collection{s.teachCol, s.learnCol, s.interestCol} {
		_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
	}

	return s, nil
}

func (s *MongoProfileStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoProfileStore) Get(ctx context.Context, userID string) (*models.ProfileRecord, error) {
	var rec models.ProfileRecord
	if err := s.profilesCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *MongoProfileStore) GetByEmail(ctx context.Context, email string) (*models.ProfileRecord, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var rec models.ProfileRecord
	if err := s.profilesCol.FindOne(ctx, bson.M{"email": email}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *MongoProfileStore) Upsert(ctx context.Context, userID string, defaults ProfileDefaults, req *models.UpdateProfileRequest) (*models.ProfileRecord, error) {
	now := time.Now().UTC()

	set := bson.M{"updated_at": now}
	if defaults.Email != "" {
		// Email always follows the auth identity.
		set["email"] = strings.ToLower(defaults.Email)
	}
	if req != nil {
		if req.Name != nil {
			set["name"] = *req.Name
		}
		if req.DateOfBirth != nil {
			set["date_of_birth"] = *req.DateOfBirth
		}
		if req.Gender != nil {
			set["gender"] = *req.Gender
		}
		if req.SchoolOrJob != nil {
			set["school_or_job"] = *req.SchoolOrJob
		}
		if req.Location != nil {
			set["location"] = *req.Location
		}
		if req.Bio != nil {
			set["bio"] = *req.Bio
		}
		if req.ProfileImage != nil {
			set["profile_image"] = *req.ProfileImage
		}
	}

	// MongoDB forbids the same path in both $set and $setOnInsert, so the
	// identity-derived name default only applies when the caller is not
	// explicitly setting the name.
	setOnInsert := bson.M{
		"user_id":    userID,
		"created_at": now,
	}
	if defaults.Name != "" && (req == nil || req.Name == nil) {
		setOnInsert["name"] = defaults.Name
	}

	_, err := s.profilesCol.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

func (s *MongoProfileStore) List(ctx context.Context) ([]*models.ProfileRecord, error) {
	cur, err := s.profilesCol.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.ProfileRecord, 0)
	for cur.Next(ctx) {
		var rec models.ProfileRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, cur.Err()
}

func (s *MongoProfileStore) Delete(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}
	if _, err := s.profilesCol.DeleteOne(ctx, filter); err != nil {
		return err
	}
	for _, col := range []*mongo.Collection{s.teachCol, s.learnCol, s.interestCol} {
		if _, err := col.DeleteOne(ctx, filter); err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoProfileStore) TeachSkills(ctx context.Context, userID string) ([]models.TeachSkill, error) {
	var doc teachSkillsDoc
	if err := s.teachCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return doc.Skills, nil
}

func (s *MongoProfileStore) LearnSkills(ctx context.Context, userID string) ([]string, error) {
	return s.stringList(ctx, s.learnCol, userID)
}

func (s *MongoProfileStore) Interests(ctx context.Context, userID string) ([]string, error) {
	return s.stringList(ctx, s.interestCol, userID)
}

func (s *MongoProfileStore) stringList(ctx context.Context, col *mongo.Collection, userID string) ([]string, error) {
	var doc stringListDoc
	if err := col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return doc.Values, nil
}

func (s *MongoProfileStore) ReplaceTeachSkills(ctx context.Context, userID string, skills []models.TeachSkill) error {
	doc := teachSkillsDoc{
		UserID:    userID,
		Skills:    skills,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.teachCol.ReplaceOne(ctx, bson.M{"user_id": userID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoProfileStore) ReplaceLearnSkills(ctx context.Context, userID string, skills []string) error {
	return s.replaceStringList(ctx, s.learnCol, userID, skills)
}

func (s *MongoProfileStore) ReplaceInterests(ctx context.Context, userID string, interests []string) error {
	return s.replaceStringList(ctx, s.interestCol, userID, interests)
}

func (s *MongoProfileStore) replaceStringList(ctx context.Context, col *mongo.Collection, userID string, values []string) error {
	doc := stringListDoc{
		UserID:    userID,
		Values:    values,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := col.ReplaceOne(ctx, bson.M{"user_id": userID}, doc, options.Replace().SetUpsert(true))
	return err
}
