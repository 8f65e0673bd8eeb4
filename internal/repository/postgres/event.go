package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

var _ repository.EventRepository = (*EventRepo)(nil)

type EventRepo struct {
	db *gorm.DB
}

func (r *EventRepo) Create(ctx context.Context, event *model.Event) error {
	if event.ID == "" {
		event.ID = xid.New().String()
	}
	rec := toEventRecord(event)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("Event", event.ID)
		}
		return fmt.Errorf("postgres: inserting event: %w", err)
	}
	return nil
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	return getEvent(r.db.WithContext(ctx), id)
}

func getEvent(db *gorm.DB, id string) (*model.Event, error) {
	var rec eventRecord
	if err := db.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Event", id)
		}
		return nil, fmt.Errorf("postgres: getting event %s: %w", id, err)
	}
	ev := rec.toModel()
	return &ev, nil
}

func (r *EventRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.Event, error) {
	var recs []eventRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(opts.Offset).
		Limit(opts.Limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: listing events: %w", err)
	}

	events := make([]model.Event, 0, len(recs))
	for _, rec := range recs {
		events = append(events, rec.toModel())
	}
	return events, nil
}

func (r *EventRepo) Update(ctx context.Context, id string, patch model.EventPatch) (*model.Event, error) {
	var updated *model.Event
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getEvent(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id); err != nil {
			return err
		}
		if changes := patch.Changes(); len(changes) > 0 {
			if err := tx.Model(&eventRecord{}).Where("id = ?", id).Updates(changes).Error; err != nil {
				return fmt.Errorf("postgres: updating event %s: %w", id, err)
			}
		}
		ev, err := getEvent(tx, id)
		if err != nil {
			return err
		}
		updated = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *EventRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&eventRecord{})
	if res.Error != nil {
		return fmt.Errorf("postgres: deleting event %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("Event", id)
	}
	return nil
}
