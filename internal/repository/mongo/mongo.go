// Package mongo implements the repository interfaces on MongoDB.
//
// Documents keep our own string id in an "id" field (unique index) next to
// Mongo's _id, so ids look the same whichever store produced them.
package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store holds one client and the association's database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects, pings and ensures the indexes. The timeout bounds the
// connect + ping + index phase, not later queries.
func Open(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRegistry(newRegistry()))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ensuring indexes: %w", err)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := func(key string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: key, Value: 1}}, Options: options.Index().SetUnique(true)}
	}

	if _, err := s.db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique("id"), unique("username"),
	}); err != nil {
		return fmt.Errorf("users: %w", err)
	}
	if _, err := s.db.Collection("doctors").Indexes().CreateOne(ctx, unique("id")); err != nil {
		return fmt.Errorf("doctors: %w", err)
	}
	if _, err := s.db.Collection("events").Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique("id"),
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Credentials() repository.CredentialRepository {
	return &CredentialRepo{col: s.db.Collection("users")}
}

func (s *Store) Doctors() repository.DoctorRepository {
	return &DoctorRepo{col: s.db.Collection("doctors")}
}

func (s *Store) Events() repository.EventRepository {
	return &EventRepo{col: s.db.Collection("events")}
}

// doctorFilter turns the search terms into a query document. Terms are
// quoted so "Dr. (Jr)" matches literally.
func doctorFilter(f model.DoctorFilter) bson.M {
	filter := bson.M{}
	if f.City != "" {
		filter["city"] = bson.M{"$regex": regexp.QuoteMeta(f.City), "$options": "i"}
	}
	if f.Specialty != "" {
		filter["specialty"] = bson.M{"$regex": regexp.QuoteMeta(f.Specialty), "$options": "i"}
	}
	return filter
}

// setDocument wraps patch changes in a $set operator.
func setDocument(changes map[string]any) bson.M {
	set := bson.M{}
	for k, v := range changes {
		set[k] = v
	}
	return bson.M{"$set": set}
}

// findOptions maps list options onto skip/limit, with an optional sort.
func findOptions(opts repository.ListOptions, sort bson.D) *options.FindOptions {
	fo := options.Find().SetSkip(int64(opts.Offset)).SetLimit(int64(opts.Limit))
	if sort != nil {
		fo.SetSort(sort)
	}
	return fo
}
