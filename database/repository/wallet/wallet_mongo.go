package walletRepo

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

// MongoWalletRepo implements WalletRepository using MongoDB.
type MongoWalletRepo struct {
	coll *mongo.Collection
}

// NewMongoWalletRepo creates a repository backed by the "wallets" collection.
func NewMongoWalletRepo() *MongoWalletRepo {
	return &MongoWalletRepo{coll: database.Collection("wallets")}
}

func ownerFilter(owner models.OwnerRef) bson.M {
	return bson.M{"owner_kind": owner.Kind, "owner_id": owner.ID}
}

func (r *MongoWalletRepo) Credit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error) {
	// Upsert: the equality fields of the filter seed the new document on
	// first credit.
	update := bson.M{
		"$inc": bson.M{"amount": amount},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var w models.Wallet
	if err := r.coll.FindOneAndUpdate(ctx, ownerFilter(owner), update, opts).Decode(&w); err != nil {
		return nil, fmt.Errorf("failed to credit wallet %s/%s: %w", owner.Kind, owner.ID, err)
	}
	return &w, nil
}

func (r *MongoWalletRepo) Debit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error) {
	// The balance guard travels with the decrement; a stale in-memory read
	// can never overdraw the wallet.
	filter := ownerFilter(owner)
	filter["amount"] = bson.M{"$gte": amount}
	update := bson.M{
		"$inc": bson.M{"amount": -amount},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var w models.Wallet
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("failed to debit wallet %s/%s: %w", owner.Kind, owner.ID, err)
	}
	return &w, nil
}

func (r *MongoWalletRepo) Get(ctx context.Context, owner models.OwnerRef) (*models.Wallet, error) {
	var w models.Wallet
	err := r.coll.FindOne(ctx, ownerFilter(owner)).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wallet %s/%s: %w", owner.Kind, owner.ID, err)
	}
	return &w, nil
}
