package withdrawRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medilink/database"
	"medilink/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWithdrawRepo implements WithdrawRepository using MongoDB.
type MongoWithdrawRepo struct {
	coll *mongo.Collection
}

// NewMongoWithdrawRepo creates a repository backed by the "withdraws"
// collection.
func NewMongoWithdrawRepo() *MongoWithdrawRepo {
	return &MongoWithdrawRepo{coll: database.Collection("withdraws")}
}

func (r *MongoWithdrawRepo) Insert(ctx context.Context, w *models.Withdraw) error {
	if _, err := r.coll.InsertOne(ctx, w); err != nil {
		return fmt.Errorf("failed to insert withdraw: %w", err)
	}
	return nil
}

func (r *MongoWithdrawRepo) GetByID(ctx context.Context, id string) (*models.Withdraw, error) {
	var w models.Withdraw
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch withdraw %s: %w", id, err)
	}
	return &w, nil
}

func (r *MongoWithdrawRepo) ListByOwner(ctx context.Context, owner models.OwnerRef) ([]models.Withdraw, error) {
	filter := bson.M{"owner_kind": owner.Kind, "owner_id": owner.ID}
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdraws for %s/%s: %w", owner.Kind, owner.ID, err)
	}
	defer cur.Close(ctx)

	var withdraws []models.Withdraw
	if err := cur.All(ctx, &withdraws); err != nil {
		return nil, fmt.Errorf("failed to decode withdraws: %w", err)
	}
	return withdraws, nil
}

func (r *MongoWithdrawRepo) Resolve(ctx context.Context, id, status string, resolvedAt time.Time) (*models.Withdraw, error) {
	filter := bson.M{"id": id, "status": models.WithdrawPending}
	update := bson.M{"$set": bson.M{"status": status, "resolved_at": resolvedAt}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var w models.Withdraw
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve withdraw %s: %w", id, err)
	}
	return &w, nil
}

func (r *MongoWithdrawRepo) RevertToPending(ctx context.Context, id string) error {
	filter := bson.M{"id": id, "status": models.WithdrawRejected}
	update := bson.M{
		"$set":   bson.M{"status": models.WithdrawPending},
		"$unset": bson.M{"resolved_at": ""},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to revert withdraw %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

func (r *MongoWithdrawRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete withdraw %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
