package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

var _ repository.CredentialRepository = (*CredentialRepo)(nil)

type CredentialRepo struct {
	col *mongo.Collection
}

func (r *CredentialRepo) Create(ctx context.Context, cred *model.Credential) error {
	if cred.ID == "" {
		cred.ID = xid.New().String()
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, cred); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("credential", cred.Username)
		}
		return fmt.Errorf("mongo: inserting credential %s: %w", cred.Username, err)
	}
	return nil
}

func (r *CredentialRepo) GetByUsername(ctx context.Context, username string) (*model.Credential, error) {
	var cred model.Credential
	err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&cred)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("credential", username)
		}
		return nil, fmt.Errorf("mongo: getting credential %s: %w", username, err)
	}
	return &cred, nil
}

func (r *CredentialRepo) Update(ctx context.Context, cred *model.Credential) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"id": cred.ID}, bson.M{"$set": bson.M{
		"full_name":       cred.FullName,
		"hashed_password": cred.PasswordHash,
		"disabled":        cred.Disabled,
	}})
	if err != nil {
		return fmt.Errorf("mongo: updating credential %s: %w", cred.Username, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("credential", cred.Username)
	}
	return nil
}
