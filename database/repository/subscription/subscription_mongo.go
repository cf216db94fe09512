package subscriptionRepo

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

// MongoSubscriptionRepo implements SubscriptionRepository using MongoDB.
type MongoSubscriptionRepo struct {
	catalogColl  *mongo.Collection
	purchaseColl *mongo.Collection
	boyColl      *mongo.Collection
	partnerColl  *mongo.Collection
}

// NewMongoSubscriptionRepo creates a repository over the subscription
// catalog, purchases, service boys, and partners collections.
func NewMongoSubscriptionRepo() *MongoSubscriptionRepo {
	repo := &MongoSubscriptionRepo{
		catalogColl:  database.Collection("subscriptions"),
		purchaseColl: database.Collection("subscription_purchases"),
		boyColl:      database.Collection("service_boys"),
		partnerColl:  database.Collection("partners"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// ensureIndexes creates the purchase indexes. The unique partner_id index is
// what keeps concurrent first purchases down to one row per partner.
func (r *MongoSubscriptionRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "partner_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.purchaseColl.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoSubscriptionRepo) GetCatalogItem(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.catalogColl.FindOne(ctx, bson.M{"id": id}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription %s: %w", id, err)
	}
	return &sub, nil
}

func (r *MongoSubscriptionRepo) GetPurchaseByPartner(ctx context.Context, partnerID string) (*models.SubscriptionPurchase, error) {
	var p models.SubscriptionPurchase
	err := r.purchaseColl.FindOne(ctx, bson.M{"partner_id": partnerID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch purchase for partner %s: %w", partnerID, err)
	}
	return &p, nil
}

func (r *MongoSubscriptionRepo) GetPurchaseByID(ctx context.Context, id string) (*models.SubscriptionPurchase, error) {
	var p models.SubscriptionPurchase
	err := r.purchaseColl.FindOne(ctx, bson.M{"id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch purchase %s: %w", id, err)
	}
	return &p, nil
}

func (r *MongoSubscriptionRepo) ListPurchasesByPartner(ctx context.Context, partnerID string) ([]models.SubscriptionPurchase, error) {
	cur, err := r.purchaseColl.Find(ctx, bson.M{"partner_id": partnerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases for partner %s: %w", partnerID, err)
	}
	defer cur.Close(ctx)

	var purchases []models.SubscriptionPurchase
	if err := cur.All(ctx, &purchases); err != nil {
		return nil, fmt.Errorf("failed to decode purchases: %w", err)
	}
	return purchases, nil
}

func (r *MongoSubscriptionRepo) InsertPurchase(ctx context.Context, p *models.SubscriptionPurchase) error {
	if _, err := r.purchaseColl.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicatePartner
		}
		return fmt.Errorf("failed to insert subscription purchase: %w", err)
	}
	return nil
}

func (r *MongoSubscriptionRepo) RenewPurchase(ctx context.Context, id string, expiresAt, renewedAt time.Time) (*models.SubscriptionPurchase, error) {
	filter := bson.M{"id": id}
	update := bson.M{"$set": bson.M{"expires_at": expiresAt, "renewed_at": renewedAt}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.SubscriptionPurchase
	err := r.purchaseColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("failed to renew purchase %s: %w", id, err)
	}
	return &p, nil
}

// AllocateServiceBoy runs the quota decrement and the service-boy insert in a
// mongo session transaction. The `$gt: 0` predicate on the decrement is what
// makes concurrent allocations against the last slot resolve to one winner.
func (r *MongoSubscriptionRepo) AllocateServiceBoy(ctx context.Context, purchaseID string, boy *models.ServiceBoy) error {
	client := r.purchaseColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		filter := bson.M{
			"id":                          purchaseID,
			"number_of_service_boys_left": bson.M{"$gt": 0},
		}
		update := bson.M{"$inc": bson.M{"number_of_service_boys_left": -1}}
		res, err := r.purchaseColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("quota decrement failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNoMatch
		}
		if _, err := r.boyColl.InsertOne(sc, boy); err != nil {
			return fmt.Errorf("insert service boy failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, ErrNoMatch) {
			return ErrNoMatch
		}
		return fmt.Errorf("service boy allocation failed: %w", err)
	}

	return nil
}

func (r *MongoSubscriptionRepo) SetPartnerSubscribed(ctx context.Context, partnerID string, subscribed bool) error {
	filter := bson.M{"id": partnerID}
	update := bson.M{"$set": bson.M{"is_subscribed": subscribed}}
	if _, err := r.partnerColl.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to update partner %s subscription flag: %w", partnerID, err)
	}
	return nil
}

func (r *MongoSubscriptionRepo) SetPartnerBoysAvailability(ctx context.Context, partnerID string, available bool) (int64, error) {
	filter := bson.M{"partner_id": partnerID}
	update := bson.M{"$set": bson.M{"available": available}}
	res, err := r.boyColl.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to update service boys for partner %s: %w", partnerID, err)
	}
	return res.ModifiedCount, nil
}

func (r *MongoSubscriptionRepo) PartnerIDsWithPurchases(ctx context.Context) ([]string, error) {
	raw, err := r.purchaseColl.Distinct(ctx, "partner_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list partners with purchases: %w", err)
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
