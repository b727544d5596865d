package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// MongoStore keeps one document per user in the users collection, the same
// shape the dashboard has always read: clerkId, email, skills, role,
// readiness and a free-form aiInsights sub-document.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

type mongoUser struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ClerkID    string             `bson:"clerkId"`
	Email      string             `bson:"email"`
	FirstName  string             `bson:"firstName"`
	LastName   string             `bson:"lastName"`
	Skills     []string           `bson:"skills"`
	Role       string             `bson:"role"`
	Readiness  int                `bson:"readiness"`
	AIInsights bson.RawValue      `bson:"aiInsights"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(usersCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "clerkId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ensure clerkId index: %w", err)
	}

	s := newMongoStoreFromCollection(coll)
	s.client = client
	return s, nil
}

func newMongoStoreFromCollection(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll, now: time.Now}
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) GetByClerkID(ctx context.Context, clerkID string) (*User, error) {
	var doc mongoUser
	if err := s.coll.FindOne(ctx, bson.M{"clerkId": clerkID}).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toUser()
}

func (s *MongoStore) GetOrCreate(ctx context.Context, id Identity) (*User, error) {
	now := s.now().UTC()
	update := bson.M{
		"$setOnInsert": bson.M{
			"email":     id.Email,
			"firstName": id.FirstName,
			"lastName":  id.LastName,
			"skills":    []string{},
			"role":      "",
			"readiness": 0,
			"createdAt": now,
			"updatedAt": now,
		},
	}
	return s.upsert(ctx, id.ClerkID, update)
}

func (s *MongoStore) SaveQuiz(ctx context.Context, clerkID string, quiz QuizResult) (*User, error) {
	now := s.now().UTC()
	update := bson.M{
		"$set": bson.M{
			"skills":    normalizeSkills(quiz.Skills),
			"role":      quiz.Role,
			"readiness": quiz.Readiness,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"email":     "",
			"firstName": "",
			"lastName":  "",
			"createdAt": now,
		},
	}
	return s.upsert(ctx, clerkID, update)
}

func (s *MongoStore) SetInsights(ctx context.Context, clerkID string, insights json.RawMessage) (*User, error) {
	var value any
	if insights != nil {
		var doc bson.D
		if err := bson.UnmarshalExtJSON(insights, false, &doc); err != nil {
			return nil, fmt.Errorf("insights must be a JSON object: %w", err)
		}
		value = doc
	}

	update := bson.M{"$set": bson.M{"aiInsights": value, "updatedAt": s.now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoUser
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"clerkId": clerkID}, update, opts).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toUser()
}

func (s *MongoStore) upsert(ctx context.Context, clerkID string, update bson.M) (*User, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc mongoUser
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"clerkId": clerkID}, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// Two first requests raced on the unique index; the loser retries as an update.
		doc = mongoUser{}
		err = s.coll.FindOneAndUpdate(ctx, bson.M{"clerkId": clerkID}, update, opts).Decode(&doc)
	}
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toUser()
}

func (d mongoUser) toUser() (*User, error) {
	u := &User{
		ID:        d.ID.Hex(),
		ClerkID:   d.ClerkID,
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Skills:    normalizeSkills(d.Skills),
		Role:      d.Role,
		Readiness: d.Readiness,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}

	if d.AIInsights.Type == bsontype.EmbeddedDocument {
		raw, err := bson.MarshalExtJSON(d.AIInsights.Document(), false, false)
		if err != nil {
			return nil, fmt.Errorf("failed to encode aiInsights: %w", err)
		}
		u.AIInsights = raw
	}
	return u, nil
}

func mapMongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
