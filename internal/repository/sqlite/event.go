package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

var _ repository.EventRepository = (*EventDB)(nil)

// EventDB stores association events in the events table.
type EventDB struct {
	conn *sql.DB
}

const eventColumns = `id, COALESCE(title, ''), COALESCE(date, ''), COALESCE(time, ''),
	COALESCE(location, ''), COALESCE(description, ''), COALESCE(image_url, ''),
	COALESCE(status, ''), COALESCE(external_link, ''), created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		ev        model.Event
		createdAt sql.NullTime
	)
	if err := row.Scan(&ev.ID, &ev.Title, &ev.Date, &ev.Time, &ev.Location,
		&ev.Description, &ev.ImageURL, &ev.Status, &ev.ExternalLink, &createdAt); err != nil {
		return nil, err
	}
	ev.CreatedAt = createdAt.Time
	return &ev, nil
}

func (e *EventDB) Create(ctx context.Context, event *model.Event) error {
	if event.ID == "" {
		event.ID = xid.New().String()
	}

	_, err := e.conn.ExecContext(ctx,
		`INSERT INTO events (id, title, date, time, location, description, image_url,
		                     status, external_link, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Title,
		event.Date,
		event.Time,
		event.Location,
		event.Description,
		event.ImageURL,
		event.Status,
		event.ExternalLink,
		event.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("Event", event.ID)
		}
		return fmt.Errorf("sqlite: creating event: %w", err)
	}
	return nil
}

func (e *EventDB) GetByID(ctx context.Context, id string) (*model.Event, error) {
	return getEvent(ctx, e.conn, id)
}

func getEvent(ctx context.Context, q querier, id string) (*model.Event, error) {
	ev, err := scanEvent(q.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("Event", id)
		}
		return nil, fmt.Errorf("sqlite: getting event %s: %w", id, err)
	}
	return ev, nil
}

// List returns events newest first. Rows with the same created_at keep
// insertion order reversed, so the result is stable across pages.
func (e *EventDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Event, error) {
	rows, err := e.conn.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0, opts.Limit)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}
	return events, nil
}

func (e *EventDB) Update(ctx context.Context, id string, patch model.EventPatch) (*model.Event, error) {
	var updated *model.Event
	err := withTx(ctx, e.conn, func(tx *sql.Tx) error {
		if _, err := getEvent(ctx, tx, id); err != nil {
			return err
		}
		if err := updateColumns(ctx, tx, "events", id, patch.Changes()); err != nil {
			return fmt.Errorf("sqlite: updating event %s: %w", id, err)
		}
		ev, err := getEvent(ctx, tx, id)
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

func (e *EventDB) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, e.conn, "events", "Event", id)
}
