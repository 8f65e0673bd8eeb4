package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

var _ repository.CredentialRepository = (*CredentialRepo)(nil)

type CredentialRepo struct {
	db *gorm.DB
}

func (r *CredentialRepo) Create(ctx context.Context, cred *model.Credential) error {
	if cred.ID == "" {
		cred.ID = xid.New().String()
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	rec := toCredentialRecord(cred)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("credential", cred.Username)
		}
		return fmt.Errorf("postgres: inserting credential %s: %w", cred.Username, err)
	}
	return nil
}

func (r *CredentialRepo) GetByUsername(ctx context.Context, username string) (*model.Credential, error) {
	var rec credentialRecord
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("credential", username)
		}
		return nil, fmt.Errorf("postgres: getting credential %s: %w", username, err)
	}
	return rec.toModel(), nil
}

func (r *CredentialRepo) Update(ctx context.Context, cred *model.Credential) error {
	res := r.db.WithContext(ctx).Model(&credentialRecord{}).Where("id = ?", cred.ID).
		Updates(map[string]any{
			"full_name":       cred.FullName,
			"hashed_password": cred.PasswordHash,
			"disabled":        cred.Disabled,
		})
	if res.Error != nil {
		return fmt.Errorf("postgres: updating credential %s: %w", cred.Username, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("credential", cred.Username)
	}
	return nil
}
