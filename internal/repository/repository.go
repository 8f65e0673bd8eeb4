// Package repository declares the persistence contracts.
//
// Services depend on these interfaces only. The concrete stores live in
// sub-packages (sqlite, mongo, postgres) and are picked at startup by
// repository/backend from the storage URL.
package repository

import (
	"context"

	"github.com/sakif/medassoc/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// CredentialRepository persists the admin identity.
// Create returns apperror.ErrConflict when the username is already taken.
type CredentialRepository interface {
	Create(ctx context.Context, cred *model.Credential) error
	GetByUsername(ctx context.Context, username string) (*model.Credential, error)
	Update(ctx context.Context, cred *model.Credential) error
}

// DoctorRepository persists directory entries.
//
// Update applies the patch and returns the stored record in one atomic step
// (a transaction or a single find-and-modify), so a concurrent delete can
// never be half-observed. Update and Delete return apperror.ErrNotFound for
// an unknown id.
type DoctorRepository interface {
	Create(ctx context.Context, doctor *model.Doctor) error
	GetByID(ctx context.Context, id string) (*model.Doctor, error)
	List(ctx context.Context, filter model.DoctorFilter, opts ListOptions) ([]model.Doctor, error)
	Update(ctx context.Context, id string, patch model.DoctorPatch) (*model.Doctor, error)
	Delete(ctx context.Context, id string) error
}

// EventRepository persists events. List returns newest first.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, opts ListOptions) ([]model.Event, error)
	Update(ctx context.Context, id string, patch model.EventPatch) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

// Store is an opened storage backend.
// Opening a Store creates its schema, so a Store is ready for use.
type Store interface {
	Credentials() CredentialRepository
	Doctors() DoctorRepository
	Events() EventRepository
	Ping(ctx context.Context) error
	Close() error
}
