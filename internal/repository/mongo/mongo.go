// Package mongo implements the repository interfaces on MongoDB, where the
// profile documents are produced by the usage and payment jobs.
//
// Documents are read in _id order, which for ObjectIDs is insertion order.
// Filters are pushed down with FilterDocument and every decoded document is
// re-checked with query.Filter.Match.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/repository"
)

// ExclusionCollection holds the dashboard's exclusion registry.
const ExclusionCollection = "dashboard_exclusions"

const disconnectTimeout = 10 * time.Second

var _ repository.Store = (*Store)(nil)

// Config selects the cluster, database and profile collection.
type Config struct {
	URI               string
	Database          string
	ProfileCollection string
}

// Store implements repository.Store on a MongoDB database.
type Store struct {
	client     *mongo.Client
	profiles   *mongo.Collection
	exclusions *mongo.Collection
}

// New connects, pings and makes sure the unique indexes exist.
func New(ctx context.Context, cfg Config) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client:     client,
		profiles:   db.Collection(cfg.ProfileCollection),
		exclusions: db.Collection(ExclusionCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.profiles: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_email", Value: 1}}},
			{Keys: bson.D{{Key: "ai_profile.user_category", Value: 1}}},
		},
		s.exclusions: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: creating indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// Ping checks the cluster is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return apperror.Upstream("mongo ping", err)
	}
	return nil
}

// Close disconnects from the cluster.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
