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

var _ repository.DoctorRepository = (*DoctorRepo)(nil)

type DoctorRepo struct {
	db *gorm.DB
}

func (r *DoctorRepo) Create(ctx context.Context, doctor *model.Doctor) error {
	if doctor.ID == "" {
		doctor.ID = xid.New().String()
	}
	rec := toDoctorRecord(doctor)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("Doctor", doctor.ID)
		}
		return fmt.Errorf("postgres: inserting doctor: %w", err)
	}
	return nil
}

func (r *DoctorRepo) GetByID(ctx context.Context, id string) (*model.Doctor, error) {
	return getDoctor(r.db.WithContext(ctx), id)
}

func getDoctor(db *gorm.DB, id string) (*model.Doctor, error) {
	var rec doctorRecord
	if err := db.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Doctor", id)
		}
		return nil, fmt.Errorf("postgres: getting doctor %s: %w", id, err)
	}
	doc := rec.toModel()
	return &doc, nil
}

func (r *DoctorRepo) List(ctx context.Context, filter model.DoctorFilter, opts repository.ListOptions) ([]model.Doctor, error) {
	q := r.db.WithContext(ctx).Model(&doctorRecord{})
	if filter.City != "" {
		q = q.Where("city ILIKE ?", containsPattern(filter.City))
	}
	if filter.Specialty != "" {
		q = q.Where("specialty ILIKE ?", containsPattern(filter.Specialty))
	}

	var recs []doctorRecord
	if err := q.Order("created_at, id").Offset(opts.Offset).Limit(opts.Limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("postgres: listing doctors: %w", err)
	}

	doctors := make([]model.Doctor, 0, len(recs))
	for _, rec := range recs {
		doctors = append(doctors, rec.toModel())
	}
	return doctors, nil
}

// Update locks the row for the length of the transaction so a concurrent
// delete waits and then sees the updated row, or wins and the update 404s.
func (r *DoctorRepo) Update(ctx context.Context, id string, patch model.DoctorPatch) (*model.Doctor, error) {
	var updated *model.Doctor
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getDoctor(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id); err != nil {
			return err
		}
		if changes := patch.Changes(); len(changes) > 0 {
			if err := tx.Model(&doctorRecord{}).Where("id = ?", id).Updates(changes).Error; err != nil {
				return fmt.Errorf("postgres: updating doctor %s: %w", id, err)
			}
		}
		doc, err := getDoctor(tx, id)
		if err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *DoctorRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&doctorRecord{})
	if res.Error != nil {
		return fmt.Errorf("postgres: deleting doctor %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("Doctor", id)
	}
	return nil
}
