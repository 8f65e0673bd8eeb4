package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

// compile-time check that *CredentialDB implements repository.CredentialRepository
var _ repository.CredentialRepository = (*CredentialDB)(nil)

// CredentialDB stores the admin identity in the users table.
type CredentialDB struct {
	conn *sql.DB
}

// Create inserts a new credential.
//
// Username uniqueness is enforced by the UNIQUE index, not by a prior SELECT:
// two processes bootstrapping at the same moment both try to INSERT and
// exactly one wins. The loser gets apperror.ErrConflict.
func (c *CredentialDB) Create(ctx context.Context, cred *model.Credential) error {
	if cred.ID == "" {
		cred.ID = xid.New().String()
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}

	_, err := c.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, full_name, hashed_password, disabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cred.ID,
		cred.Username,
		cred.FullName,
		cred.PasswordHash,
		cred.Disabled,
		cred.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("credential", cred.Username)
		}
		return fmt.Errorf("sqlite: inserting credential %s: %w", cred.Username, err)
	}
	return nil
}

// GetByUsername retrieves a credential by its username.
// Returns apperror.ErrNotFound if no credential exists with that username.
func (c *CredentialDB) GetByUsername(ctx context.Context, username string) (*model.Credential, error) {
	var (
		cred      model.Credential
		createdAt sql.NullTime
	)

	err := c.conn.QueryRowContext(ctx,
		`SELECT id, username, COALESCE(full_name, ''), COALESCE(hashed_password, ''),
		        COALESCE(disabled, 0), created_at
		 FROM users WHERE username = ?`,
		username,
	).Scan(
		&cred.ID,
		&cred.Username,
		&cred.FullName,
		&cred.PasswordHash,
		&cred.Disabled,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("credential", username)
		}
		return nil, fmt.Errorf("sqlite: getting credential %s: %w", username, err)
	}
	cred.CreatedAt = createdAt.Time

	return &cred, nil
}

// Update rewrites the mutable credential fields (full name, hash, disabled).
// Username and ID never change.
func (c *CredentialDB) Update(ctx context.Context, cred *model.Credential) error {
	result, err := c.conn.ExecContext(ctx,
		`UPDATE users SET full_name = ?, hashed_password = ?, disabled = ? WHERE id = ?`,
		cred.FullName,
		cred.PasswordHash,
		cred.Disabled,
		cred.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating credential %s: %w", cred.Username, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("credential", cred.Username)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
