package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/model"
	"github.com/sakif/profile-dashboard/internal/query"
)

// profileDoc adds the ObjectID to the shared model; every other field is
// inlined from model.UserProfile's bson tags.
type profileDoc struct {
	ObjectID          bson.ObjectID `bson:"_id,omitempty"`
	model.UserProfile `bson:",inline"`
}

func (d profileDoc) toModel() model.UserProfile {
	p := d.UserProfile
	p.ID = d.ObjectID.Hex()
	return p
}

var byInsertion = bson.D{{Key: "_id", Value: 1}}

// Find returns every profile matching f in insertion order.
func (s *Store) Find(ctx context.Context, f query.Filter) ([]model.UserProfile, error) {
	cur, err := s.profiles.Find(ctx, FilterDocument(f), options.Find().SetSort(byInsertion))
	if err != nil {
		return nil, apperror.Upstream("mongo: finding profiles", err)
	}

	var docs []profileDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperror.Upstream("mongo: decoding profiles", err)
	}

	profiles := make([]model.UserProfile, 0, len(docs))
	for _, d := range docs {
		p := d.toModel()
		if f.Match(&p) {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

// GetByUserID looks a profile up by the platform's user id.
func (s *Store) GetByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	var d profileDoc
	err := s.profiles.FindOne(ctx, bson.M{"user_id": userID}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, apperror.Upstream("mongo: getting profile", err)
	}
	p := d.toModel()
	return &p, nil
}

// Upsert sets the externally generated fields of p.UserID's document,
// creating it if needed. An existing ai_profile is kept when p has none.
func (s *Store) Upsert(ctx context.Context, p *model.UserProfile) error {
	if p.UserID == "" {
		return apperror.ValidationFailed("user_id", "user_id is required")
	}

	now := time.Now().UTC()
	set := bson.M{
		"user_email":    p.UserEmail,
		"stats":         p.Stats,
		"payment_stats": p.PaymentStats,
		"top_workflows": p.TopWorkflows,
		"updated_at":    now,
	}
	if p.AIProfile != nil {
		set["ai_profile"] = p.AIProfile
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}

	_, err := s.profiles.UpdateOne(ctx, bson.M{"user_id": p.UserID}, update,
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return apperror.Upstream("mongo: upserting profile", err)
	}

	stored, err := s.GetByUserID(ctx, p.UserID)
	if err != nil {
		return err
	}
	p.ID = stored.ID
	p.CreatedAt = stored.CreatedAt
	p.UpdatedAt = stored.UpdatedAt
	p.AIProfile = stored.AIProfile
	return nil
}

// SetAIProfile writes the classification for one user. Without force, the
// ai_profile: null guard makes the update match nothing for analyzed users.
func (s *Store) SetAIProfile(ctx context.Context, userID string, profile *model.AIProfile, force bool) (bool, error) {
	if err := profile.Validate(); err != nil {
		return false, apperror.ValidationFailed("ai_profile", err.Error())
	}

	filter := bson.M{"user_id": userID}
	if !force {
		filter["ai_profile"] = nil
	}
	update := bson.M{"$set": bson.M{
		"ai_profile": profile,
		"updated_at": time.Now().UTC(),
	}}

	res, err := s.profiles.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, apperror.Upstream("mongo: setting ai profile", err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	n, err := s.profiles.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, apperror.Upstream("mongo: checking profile", err)
	}
	if n == 0 {
		return false, apperror.NotFound("user", userID)
	}
	return false, nil
}

// ListPending selects the analysis job's work set.
func (s *Store) ListPending(ctx context.Context, email string, force bool) ([]model.UserProfile, error) {
	cur, err := s.profiles.Find(ctx, pendingDocument(email, force), options.Find().SetSort(byInsertion))
	if err != nil {
		return nil, apperror.Upstream("mongo: listing pending profiles", err)
	}

	var docs []profileDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperror.Upstream("mongo: decoding pending profiles", err)
	}

	profiles := make([]model.UserProfile, 0, len(docs))
	for _, d := range docs {
		profiles = append(profiles, d.toModel())
	}
	return profiles, nil
}
