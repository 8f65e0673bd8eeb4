package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

var _ repository.DoctorRepository = (*DoctorRepo)(nil)

type DoctorRepo struct {
	col *mongo.Collection
}

func (r *DoctorRepo) Create(ctx context.Context, doctor *model.Doctor) error {
	if doctor.ID == "" {
		doctor.ID = xid.New().String()
	}
	if _, err := r.col.InsertOne(ctx, doctor); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("Doctor", doctor.ID)
		}
		return fmt.Errorf("mongo: inserting doctor: %w", err)
	}
	return nil
}

func (r *DoctorRepo) GetByID(ctx context.Context, id string) (*model.Doctor, error) {
	var doc model.Doctor
	if err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("Doctor", id)
		}
		return nil, fmt.Errorf("mongo: getting doctor %s: %w", id, err)
	}
	return &doc, nil
}

// List uses natural order; the directory has no defined sort.
func (r *DoctorRepo) List(ctx context.Context, filter model.DoctorFilter, opts repository.ListOptions) ([]model.Doctor, error) {
	cur, err := r.col.Find(ctx, doctorFilter(filter), findOptions(opts, nil))
	if err != nil {
		return nil, fmt.Errorf("mongo: listing doctors: %w", err)
	}
	doctors := make([]model.Doctor, 0, opts.Limit)
	if err := cur.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("mongo: decoding doctors: %w", err)
	}
	return doctors, nil
}

// Update is a single find-and-modify, so the returned document is exactly
// the one the $set produced.
func (r *DoctorRepo) Update(ctx context.Context, id string, patch model.DoctorPatch) (*model.Doctor, error) {
	changes := patch.Changes()
	if len(changes) == 0 {
		return r.GetByID(ctx, id)
	}

	var doc model.Doctor
	err := r.col.FindOneAndUpdate(ctx, bson.M{"id": id}, setDocument(changes),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("Doctor", id)
		}
		return nil, fmt.Errorf("mongo: updating doctor %s: %w", id, err)
	}
	return &doc, nil
}

func (r *DoctorRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("mongo: deleting doctor %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("Doctor", id)
	}
	return nil
}
