package slotRepo

import (
	"context"
	"fmt"
	"time"

	"mediq/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSlotRepo implements SlotRepository using MongoDB. Atomicity of the
// FREE->HELD->BOOKED transitions comes from conditional FindOneAndUpdate
// calls against a unique (doctorId, date, start) index: the filter encodes
// the expected prior state, so two racing sessions can never both win.
type MongoSlotRepo struct {
	coll *mongo.Collection
}

// NewMongoSlotRepo constructs a MongoSlotRepo on the given database handle.
func NewMongoSlotRepo(db *mongo.Database) *MongoSlotRepo {
	return &MongoSlotRepo{coll: db.Collection("appointment_slots")}
}

// EnsureIndexes creates the unique slot-key index the CAS relies on.
func (r *MongoSlotRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "doctorId", Value: 1}, {Key: "date", Value: 1}, {Key: "start", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_slot_key"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "holdExpiresAt", Value: 1}},
			Options: options.Index().SetName("status_expiry_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create slot indexes: %w", err)
	}
	return nil
}

func (r *MongoSlotRepo) TryHold(ctx context.Context, doctorID, date string, start int, sessionID string, ttl time.Duration) (*models.AppointmentSlot, error) {
	now := time.Now().UTC()

	// Match a row that is FREE or carries a lapsed hold. If no row exists the
	// upsert inserts one; if a live HELD/BOOKED row exists, the filter misses
	// and the upsert trips the unique index instead of double-claiming.
	filter := bson.M{
		"doctorId": doctorID,
		"date":     date,
		"start":    start,
		"$or": bson.A{
			bson.M{"status": models.SlotFree},
			bson.M{"status": models.SlotHeld, "holdExpiresAt": bson.M{"$lte": now}},
		},
	}
	update := bson.M{
		// The equality fields of the filter seed the inserted document on
		// upsert, so the slot key needs no $setOnInsert.
		"$set": bson.M{
			"status":          models.SlotHeld,
			"heldBySessionId": sessionID,
			"holdExpiresAt":   now.Add(ttl),
			"updatedAt":       now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var slot models.AppointmentSlot
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&slot)
	if err == nil {
		return &slot, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		// The row exists but was not claimable; report its current status.
		current, gerr := r.Get(ctx, doctorID, date, start)
		if gerr != nil || current == nil {
			return nil, &ConflictError{Status: models.SlotHeld}
		}
		return nil, &ConflictError{Status: current.Status}
	}
	return nil, fmt.Errorf("error holding slot %s: %w", models.SlotKey(doctorID, date, start), err)
}

func (r *MongoSlotRepo) Confirm(ctx context.Context, doctorID, date string, start int, sessionID, patientName, notes string) (*models.AppointmentSlot, error) {
	now := time.Now().UTC()

	filter := bson.M{
		"doctorId":        doctorID,
		"date":            date,
		"start":           start,
		"status":          models.SlotHeld,
		"heldBySessionId": sessionID,
		"holdExpiresAt":   bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status":            models.SlotBooked,
			"bookedPatientName": patientName,
			"notes":             notes,
			"updatedAt":         now,
		},
		"$unset": bson.M{"heldBySessionId": "", "holdExpiresAt": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var slot models.AppointmentSlot
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&slot)
	if err == nil {
		return &slot, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("error confirming slot %s: %w", models.SlotKey(doctorID, date, start), err)
	}

	// The conditional update missed: decide between expiry and conflict.
	current, gerr := r.Get(ctx, doctorID, date, start)
	if gerr != nil {
		return nil, gerr
	}
	if current == nil || current.Status == models.SlotFree {
		return nil, ErrHoldExpired
	}
	if current.Status == models.SlotHeld {
		if current.HeldBySessionID == sessionID {
			// Same owner, but the hold lapsed between the filter and now.
			return nil, ErrHoldExpired
		}
		return nil, &ConflictError{Status: models.SlotHeld}
	}
	return nil, &ConflictError{Status: current.Status}
}

func (r *MongoSlotRepo) Release(ctx context.Context, doctorID, date string, start int, sessionID string) error {
	now := time.Now().UTC()

	filter := bson.M{
		"doctorId":        doctorID,
		"date":            date,
		"start":           start,
		"status":          models.SlotHeld,
		"heldBySessionId": sessionID,
	}
	update := bson.M{
		"$set":   bson.M{"status": models.SlotFree, "updatedAt": now},
		"$unset": bson.M{"heldBySessionId": "", "holdExpiresAt": ""},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error releasing slot %s: %w", models.SlotKey(doctorID, date, start), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotHeld
	}
	return nil
}

func (r *MongoSlotRepo) Get(ctx context.Context, doctorID, date string, start int) (*models.AppointmentSlot, error) {
	filter := bson.M{"doctorId": doctorID, "date": date, "start": start}
	var slot models.AppointmentSlot
	err := r.coll.FindOne(ctx, filter).Decode(&slot)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching slot %s: %w", models.SlotKey(doctorID, date, start), err)
	}
	return &slot, nil
}

func (r *MongoSlotRepo) ListTaken(ctx context.Context, doctorID string, dates []string) ([]models.AppointmentSlot, error) {
	now := time.Now().UTC()

	filter := bson.M{
		"doctorId": doctorID,
		"date":     bson.M{"$in": dates},
		"$or": bson.A{
			bson.M{"status": models.SlotBooked},
			bson.M{"status": models.SlotHeld, "holdExpiresAt": bson.M{"$gt": now}},
		},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing taken slots for doctor %s: %w", doctorID, err)
	}
	defer cursor.Close(ctx)

	var taken []models.AppointmentSlot
	if err := cursor.All(ctx, &taken); err != nil {
		return nil, fmt.Errorf("error decoding taken slots: %w", err)
	}
	return taken, nil
}

func (r *MongoSlotRepo) CountBooked(ctx context.Context, doctorID string, dates []string) (int64, error) {
	filter := bson.M{
		"doctorId": doctorID,
		"date":     bson.M{"$in": dates},
		"status":   models.SlotBooked,
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting booked slots for doctor %s: %w", doctorID, err)
	}
	return n, nil
}

func (r *MongoSlotRepo) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"status":        models.SlotHeld,
		"holdExpiresAt": bson.M{"$lte": now.UTC()},
	}
	update := bson.M{
		"$set":   bson.M{"status": models.SlotFree, "updatedAt": now.UTC()},
		"$unset": bson.M{"heldBySessionId": "", "holdExpiresAt": ""},
	}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("error releasing expired holds: %w", err)
	}
	return res.ModifiedCount, nil
}
