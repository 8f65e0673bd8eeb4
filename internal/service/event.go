package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

var eventRules = struct {
	title, date, time, location, description, imageURL, status, externalLink fieldRule
}{
	title:        fieldRule{name: "title", max: MaxShortText, required: true},
	date:         fieldRule{name: "date", max: MaxShortText, required: true},
	time:         fieldRule{name: "time", max: MaxShortText, required: true},
	location:     fieldRule{name: "location", max: MaxShortText, required: true},
	description:  fieldRule{name: "description", max: MaxDescription, required: true},
	imageURL:     fieldRule{name: "image_url", max: MaxURL, kind: urlField},
	status:       fieldRule{name: "status", max: MaxShortText},
	externalLink: fieldRule{name: "external_link", max: MaxURL, kind: urlField},
}

// EventService handles business logic for association events.
// Same lifecycle as doctors; lists come back newest first.
type EventService struct {
	repo   repository.EventRepository
	clock  *Clock
	logger *slog.Logger
}

func NewEventService(repo repository.EventRepository, clock *Clock, logger *slog.Logger) *EventService {
	return &EventService{repo: repo, clock: clock, logger: logger}
}

func (s *EventService) Create(ctx context.Context, in model.EventInput) (*model.Event, error) {
	ev := &model.Event{}
	for _, f := range []struct {
		rule fieldRule
		in   string
		out  *string
	}{
		{eventRules.title, in.Title, &ev.Title},
		{eventRules.date, in.Date, &ev.Date},
		{eventRules.time, in.Time, &ev.Time},
		{eventRules.location, in.Location, &ev.Location},
		{eventRules.description, in.Description, &ev.Description},
		{eventRules.imageURL, in.ImageURL, &ev.ImageURL},
		{eventRules.status, in.Status, &ev.Status},
		{eventRules.externalLink, in.ExternalLink, &ev.ExternalLink},
	} {
		v, err := f.rule.check(f.in)
		if err != nil {
			return nil, err
		}
		*f.out = v
	}

	ev.ID = xid.New().String()
	ev.CreatedAt = s.clock.Now()

	if err := s.repo.Create(ctx, ev); err != nil {
		s.logger.Error("failed to create event",
			slog.String("title", ev.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating event: %w", err)
	}

	s.logger.Info("event created", slog.String("id", ev.ID), slog.String("title", ev.Title))
	return ev, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "event ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *EventService) List(ctx context.Context, opts repository.ListOptions) ([]model.Event, error) {
	events, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

func (s *EventService) Update(ctx context.Context, id string, patch model.EventPatch) (*model.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "event ID is required")
	}
	if patch.IsEmpty() {
		return nil, errNoData
	}

	for _, f := range []struct {
		rule fieldRule
		opt  *model.Optional[string]
	}{
		{eventRules.title, &patch.Title},
		{eventRules.date, &patch.Date},
		{eventRules.time, &patch.Time},
		{eventRules.location, &patch.Location},
		{eventRules.description, &patch.Description},
		{eventRules.imageURL, &patch.ImageURL},
		{eventRules.status, &patch.Status},
		{eventRules.externalLink, &patch.ExternalLink},
	} {
		if err := f.rule.checkPatch(f.opt); err != nil {
			return nil, err
		}
	}

	ev, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("event updated", slog.String("id", id), slog.Int("fields", len(patch.Changes())))
	return ev, nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "event ID is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("event deleted", slog.String("id", id))
	return nil
}
