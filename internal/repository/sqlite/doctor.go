package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

var _ repository.DoctorRepository = (*DoctorDB)(nil)

// DoctorDB stores directory entries in the doctors table.
type DoctorDB struct {
	conn *sql.DB
}

const doctorColumns = `id, COALESCE(name, ''), COALESCE(city, ''), COALESCE(specialty, ''),
	COALESCE(contact_info, ''), COALESCE(image_url, ''), created_at`

// querier is satisfied by both *sql.DB and *sql.Tx, so the same scan code
// runs inside and outside a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create inserts a doctor. The service normally fills ID and CreatedAt;
// an empty ID gets a fresh xid.
func (d *DoctorDB) Create(ctx context.Context, doctor *model.Doctor) error {
	if doctor.ID == "" {
		doctor.ID = xid.New().String()
	}

	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO doctors (id, name, city, specialty, contact_info, image_url, created_at,
		                      city_fold, specialty_fold)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doctor.ID,
		doctor.Name,
		doctor.City,
		doctor.Specialty,
		doctor.ContactInfo,
		doctor.ImageURL,
		doctor.CreatedAt,
		fold(doctor.City),
		fold(doctor.Specialty),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("Doctor", doctor.ID)
		}
		return fmt.Errorf("sqlite: creating doctor: %w", err)
	}
	return nil
}

// GetByID returns apperror.ErrNotFound for an unknown id.
func (d *DoctorDB) GetByID(ctx context.Context, id string) (*model.Doctor, error) {
	return getDoctor(ctx, d.conn, id)
}

func getDoctor(ctx context.Context, q querier, id string) (*model.Doctor, error) {
	var (
		doc       model.Doctor
		createdAt sql.NullTime
	)
	err := q.QueryRowContext(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Name, &doc.City, &doc.Specialty, &doc.ContactInfo, &doc.ImageURL, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("Doctor", id)
		}
		return nil, fmt.Errorf("sqlite: getting doctor %s: %w", id, err)
	}
	doc.CreatedAt = createdAt.Time
	return &doc, nil
}

// List returns doctors in insertion order, narrowed by the filter.
// The filter terms are matched against the lowercased *_fold columns.
func (d *DoctorDB) List(ctx context.Context, filter model.DoctorFilter, opts repository.ListOptions) ([]model.Doctor, error) {
	var (
		where []string
		args  []any
	)
	if filter.City != "" {
		where = append(where, "instr(city_fold, ?) > 0")
		args = append(args, fold(filter.City))
	}
	if filter.Specialty != "" {
		where = append(where, "instr(specialty_fold, ?) > 0")
		args = append(args, fold(filter.Specialty))
	}

	query := `SELECT ` + doctorColumns + ` FROM doctors`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY rowid LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing doctors: %w", err)
	}
	defer rows.Close()

	doctors := make([]model.Doctor, 0, opts.Limit)
	for rows.Next() {
		var (
			doc       model.Doctor
			createdAt sql.NullTime
		)
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.City, &doc.Specialty,
			&doc.ContactInfo, &doc.ImageURL, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning doctor row: %w", err)
		}
		doc.CreatedAt = createdAt.Time
		doctors = append(doctors, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating doctors: %w", err)
	}
	return doctors, nil
}

// Update applies the patch inside a transaction and returns the stored row.
func (d *DoctorDB) Update(ctx context.Context, id string, patch model.DoctorPatch) (*model.Doctor, error) {
	changes := patch.Changes()
	if city, ok := changes["city"].(string); ok {
		changes["city_fold"] = fold(city)
	}
	if specialty, ok := changes["specialty"].(string); ok {
		changes["specialty_fold"] = fold(specialty)
	}

	var updated *model.Doctor
	err := withTx(ctx, d.conn, func(tx *sql.Tx) error {
		if _, err := getDoctor(ctx, tx, id); err != nil {
			return err
		}
		if err := updateColumns(ctx, tx, "doctors", id, changes); err != nil {
			return fmt.Errorf("sqlite: updating doctor %s: %w", id, err)
		}
		doc, err := getDoctor(ctx, tx, id)
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

// Delete returns apperror.ErrNotFound when no row was removed.
func (d *DoctorDB) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, d.conn, "doctors", "Doctor", id)
}

// withTx runs fn in a transaction, committing on nil and rolling back otherwise.
func withTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// updateColumns builds "UPDATE table SET a = ?, b = ? WHERE id = ?".
// Column names come from the patch types' Changes, never from the request,
// so interpolating them is safe. Keys are sorted for a stable statement.
func updateColumns(ctx context.Context, tx *sql.Tx, table, id string, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	cols := make([]string, 0, len(changes))
	for col := range changes {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		sets = append(sets, col+" = ?")
		args = append(args, changes[col])
	}
	args = append(args, id)

	_, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, table, strings.Join(sets, ", ")),
		args...,
	)
	return err
}

func deleteByID(ctx context.Context, conn *sql.DB, table, resource, id string) error {
	result, err := conn.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s %s: %w", table, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
