package teleconsultRepo

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

// MongoTeleconsultRepo implements TeleconsultRepository using MongoDB.
type MongoTeleconsultRepo struct {
	coll *mongo.Collection
}

// NewMongoTeleconsultRepo creates a repository backed by the
// "teleconsultations" collection.
func NewMongoTeleconsultRepo() *MongoTeleconsultRepo {
	return &MongoTeleconsultRepo{coll: database.Collection("teleconsultations")}
}

func (r *MongoTeleconsultRepo) Insert(ctx context.Context, t *models.TeleconsultAppointment) error {
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("failed to insert teleconsultation: %w", err)
	}
	return nil
}

func (r *MongoTeleconsultRepo) GetByID(ctx context.Context, id string) (*models.TeleconsultAppointment, error) {
	var t models.TeleconsultAppointment
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teleconsultation %s: %w", id, err)
	}
	return &t, nil
}

func (r *MongoTeleconsultRepo) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.TeleconsultAppointment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t models.TeleconsultAppointment
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("conditional teleconsultation update failed: %w", err)
	}
	return &t, nil
}

func (r *MongoTeleconsultRepo) AcceptScheduled(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error) {
	filter := bson.M{"id": id, "doctor_id": doctorID, "status": models.TeleconsultScheduled}
	update := bson.M{"$set": bson.M{"status": models.TeleconsultAccepted, "updated_at": time.Now()}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoTeleconsultRepo) StartAccepted(ctx context.Context, id, doctorID, videoCallID string) (*models.TeleconsultAppointment, error) {
	filter := bson.M{"id": id, "doctor_id": doctorID, "status": models.TeleconsultAccepted}
	update := bson.M{"$set": bson.M{
		"status":        models.TeleconsultInProgress,
		"video_call_id": videoCallID,
		"updated_at":    time.Now(),
	}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoTeleconsultRepo) CompleteInProgress(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error) {
	filter := bson.M{"id": id, "doctor_id": doctorID, "status": models.TeleconsultInProgress}
	update := bson.M{"$set": bson.M{"status": models.TeleconsultCompleted, "updated_at": time.Now()}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoTeleconsultRepo) RevertToInProgress(ctx context.Context, id string) error {
	filter := bson.M{"id": id, "status": models.TeleconsultCompleted}
	update := bson.M{"$set": bson.M{"status": models.TeleconsultInProgress, "updated_at": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to revert teleconsultation %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

func (r *MongoTeleconsultRepo) CancelActive(ctx context.Context, id, refundID string) (*models.TeleconsultAppointment, error) {
	filter := bson.M{
		"id": id,
		"status": bson.M{"$in": bson.A{
			models.TeleconsultScheduled,
			models.TeleconsultAccepted,
			models.TeleconsultInProgress,
		}},
	}
	update := bson.M{"$set": bson.M{
		"status":     models.TeleconsultCancelled,
		"refund_id":  refundID,
		"updated_at": time.Now(),
	}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoTeleconsultRepo) RejectScheduled(ctx context.Context, id, doctorID, refundID string) (*models.TeleconsultAppointment, error) {
	filter := bson.M{"id": id, "doctor_id": doctorID, "status": models.TeleconsultScheduled}
	update := bson.M{"$set": bson.M{
		"status":     models.TeleconsultRejected,
		"refund_id":  refundID,
		"updated_at": time.Now(),
	}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoTeleconsultRepo) Reschedule(ctx context.Context, id, doctorID, slotID, date string) (*models.TeleconsultAppointment, error) {
	filter := bson.M{
		"id":        id,
		"doctor_id": doctorID,
		"status": bson.M{"$in": bson.A{
			models.TeleconsultScheduled,
			models.TeleconsultAccepted,
		}},
	}
	update := bson.M{"$set": bson.M{
		"slot_id":        slotID,
		"date":           date,
		"is_rescheduled": true,
		"updated_at":     time.Now(),
	}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoTeleconsultRepo) AttachPrescription(ctx context.Context, id, doctorID, url string) (*models.TeleconsultAppointment, error) {
	filter := bson.M{"id": id, "doctor_id": doctorID, "status": models.TeleconsultCompleted}
	update := bson.M{"$set": bson.M{"prescription_url": url, "updated_at": time.Now()}}
	return r.findOneAndUpdate(ctx, filter, update)
}
