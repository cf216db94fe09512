package appointmentRepo

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

// MongoAppointmentRepo implements AppointmentRepository using MongoDB.
type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo creates a repository backed by the "appointments"
// collection.
func NewMongoAppointmentRepo() *MongoAppointmentRepo {
	return &MongoAppointmentRepo{coll: database.Collection("appointments")}
}

func (r *MongoAppointmentRepo) Insert(ctx context.Context, appt *models.Appointment) error {
	if _, err := r.coll.InsertOne(ctx, appt); err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

func (r *MongoAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&appt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointment %s: %w", id, err)
	}
	return &appt, nil
}

func (r *MongoAppointmentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete appointment %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// findOneAndUpdate runs a conditional update and returns the post-image.
// ErrNoDocuments maps to ErrNoMatch: the predicate no longer holds.
func (r *MongoAppointmentRepo) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Appointment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var appt models.Appointment
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&appt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("conditional appointment update failed: %w", err)
	}
	return &appt, nil
}

func (r *MongoAppointmentRepo) ClaimScheduled(ctx context.Context, id, serviceBoyID string) (*models.Appointment, error) {
	filter := bson.M{"id": id, "status": models.AppointmentScheduled}
	update := bson.M{"$set": bson.M{
		"status":      models.AppointmentAccepted,
		"accepted_by": serviceBoyID,
		"updated_at":  time.Now(),
	}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoAppointmentRepo) CompleteAccepted(ctx context.Context, id, serviceBoyID string) (*models.Appointment, error) {
	filter := bson.M{
		"id":          id,
		"status":      models.AppointmentAccepted,
		"accepted_by": serviceBoyID,
	}
	update := bson.M{"$set": bson.M{
		"status":     models.AppointmentCompleted,
		"updated_at": time.Now(),
	}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoAppointmentRepo) CancelActive(ctx context.Context, id, actorID string) (*models.Appointment, error) {
	filter := bson.M{
		"id": id,
		"status": bson.M{"$in": bson.A{
			models.AppointmentScheduled,
			models.AppointmentAccepted,
		}},
	}
	update := bson.M{"$set": bson.M{
		"status":      models.AppointmentCancelled,
		"accepted_by": actorID,
		"updated_at":  time.Now(),
	}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoAppointmentRepo) SetStatus(ctx context.Context, id, status string) (*models.Appointment, error) {
	filter := bson.M{"id": id}
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoAppointmentRepo) MarkPaid(ctx context.Context, id string) (*models.Appointment, error) {
	filter := bson.M{"id": id, "is_paid": false}
	update := bson.M{"$set": bson.M{"is_paid": true, "updated_at": time.Now()}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoAppointmentRepo) MarkReceivedByPartner(ctx context.Context, serviceBoyID string) (int64, error) {
	filter := bson.M{
		"accepted_by":            serviceBoyID,
		"status":                 models.AppointmentCompleted,
		"is_paid":                true,
		"is_received_by_partner": false,
	}
	update := bson.M{"$set": bson.M{"is_received_by_partner": true, "updated_at": time.Now()}}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to settle appointments for service boy %s: %w", serviceBoyID, err)
	}
	return res.ModifiedCount, nil
}

func (r *MongoAppointmentRepo) AttachReport(ctx context.Context, id, reportName string) (*models.Appointment, error) {
	filter := bson.M{
		"id":                 id,
		"status":             models.AppointmentCompleted,
		"is_report_uploaded": false,
	}
	update := bson.M{"$set": bson.M{
		"is_report_uploaded": true,
		"report_name":        reportName,
		"updated_at":         time.Now(),
	}}
	return r.findOneAndUpdate(ctx, filter, update)
}
