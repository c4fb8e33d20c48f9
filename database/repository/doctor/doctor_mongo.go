package doctorRepo

import (
	"context"
	"fmt"
	"time"

	"mediq/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDoctorRepo implements DoctorRepository over the doctors collection
// the admin subsystem writes to.
type MongoDoctorRepo struct {
	coll *mongo.Collection
}

// NewMongoDoctorRepo constructs a MongoDoctorRepo on the given database handle.
func NewMongoDoctorRepo(db *mongo.Database) *MongoDoctorRepo {
	return &MongoDoctorRepo{coll: db.Collection("doctors")}
}

// EnsureIndexes creates the id and specialty lookup indexes.
func (r *MongoDoctorRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_doctor_id"),
		},
		{
			Keys:    bson.D{{Key: "specialty", Value: 1}},
			Options: options.Index().SetName("specialty_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create doctor indexes: %w", err)
	}
	return nil
}

func (r *MongoDoctorRepo) GetByID(ctx context.Context, doctorID string) (*models.Doctor, error) {
	var d models.Doctor
	err := r.coll.FindOne(ctx, bson.M{"id": doctorID}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching doctor %s: %w", doctorID, err)
	}
	return &d, nil
}

func (r *MongoDoctorRepo) ListBySpecialty(ctx context.Context, specialty models.Specialty) ([]models.Doctor, error) {
	return r.list(ctx, bson.M{"specialty": specialty})
}

func (r *MongoDoctorRepo) ListAll(ctx context.Context) ([]models.Doctor, error) {
	return r.list(ctx, bson.M{})
}

func (r *MongoDoctorRepo) list(ctx context.Context, filter bson.M) ([]models.Doctor, error) {
	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing doctors: %w", err)
	}
	defer cursor.Close(ctx)

	var doctors []models.Doctor
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("error decoding doctors: %w", err)
	}
	return doctors, nil
}
