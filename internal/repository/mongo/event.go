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

var _ repository.EventRepository = (*EventRepo)(nil)

// newestFirst breaks created_at ties on _id, which grows with insertion.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

type EventRepo struct {
	col *mongo.Collection
}

func (r *EventRepo) Create(ctx context.Context, event *model.Event) error {
	if event.ID == "" {
		event.ID = xid.New().String()
	}
	if _, err := r.col.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("Event", event.ID)
		}
		return fmt.Errorf("mongo: inserting event: %w", err)
	}
	return nil
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var ev model.Event
	if err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&ev); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("Event", id)
		}
		return nil, fmt.Errorf("mongo: getting event %s: %w", id, err)
	}
	return &ev, nil
}

func (r *EventRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.Event, error) {
	cur, err := r.col.Find(ctx, bson.M{}, findOptions(opts, newestFirst))
	if err != nil {
		return nil, fmt.Errorf("mongo: listing events: %w", err)
	}
	events := make([]model.Event, 0, opts.Limit)
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("mongo: decoding events: %w", err)
	}
	return events, nil
}

func (r *EventRepo) Update(ctx context.Context, id string, patch model.EventPatch) (*model.Event, error) {
	changes := patch.Changes()
	if len(changes) == 0 {
		return r.GetByID(ctx, id)
	}

	var ev model.Event
	err := r.col.FindOneAndUpdate(ctx, bson.M{"id": id}, setDocument(changes),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ev)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("Event", id)
		}
		return nil, fmt.Errorf("mongo: updating event %s: %w", id, err)
	}
	return &ev, nil
}

func (r *EventRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("mongo: deleting event %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("Event", id)
	}
	return nil
}
