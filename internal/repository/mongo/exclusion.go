package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/model"
)

// ListExclusions returns entries in the order they were first added.
func (s *Store) ListExclusions(ctx context.Context) ([]model.ExclusionEntry, error) {
	cur, err := s.exclusions.Find(ctx, bson.M{}, options.Find().SetSort(byInsertion))
	if err != nil {
		return nil, apperror.Upstream("mongo: listing exclusions", err)
	}

	entries := []model.ExclusionEntry{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, apperror.Upstream("mongo: decoding exclusions", err)
	}
	return entries, nil
}

// UpsertExclusion inserts e or overwrites both flags of the existing entry.
func (s *Store) UpsertExclusion(ctx context.Context, e model.ExclusionEntry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	update := bson.M{"$set": bson.M{
		"exclude_charts": e.ExcludeFromCharts,
		"exclude_list":   e.ExcludeFromList,
		"updated_at":     e.UpdatedAt,
	}}

	_, err := s.exclusions.UpdateOne(ctx, bson.M{"email": e.Email}, update,
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return apperror.Upstream("mongo: upserting exclusion", err)
	}
	return nil
}

// DeleteExclusion removes the entry for email, if any.
func (s *Store) DeleteExclusion(ctx context.Context, email string) error {
	if _, err := s.exclusions.DeleteOne(ctx, bson.M{"email": email}); err != nil {
		return apperror.Upstream("mongo: deleting exclusion", err)
	}
	return nil
}
