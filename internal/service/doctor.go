// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the configured store
//
// Services take repository interfaces, never a concrete store, so the same
// rules apply whether the association runs on SQLite, Mongo or Postgres, and
// tests run against in-memory fakes. Services return apperror values and
// know nothing about HTTP.
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

var doctorRules = struct {
	name, city, specialty, contactInfo, imageURL fieldRule
}{
	name:        fieldRule{name: "name", max: MaxShortText, required: true},
	city:        fieldRule{name: "city", max: MaxShortText, required: true},
	specialty:   fieldRule{name: "specialty", max: MaxShortText, required: true},
	contactInfo: fieldRule{name: "contact_info", max: MaxContactInfo, required: true},
	imageURL:    fieldRule{name: "image_url", max: MaxURL, kind: urlField},
}

// DoctorService handles business logic for the doctors directory.
type DoctorService struct {
	repo   repository.DoctorRepository
	clock  *Clock
	logger *slog.Logger
}

func NewDoctorService(repo repository.DoctorRepository, clock *Clock, logger *slog.Logger) *DoctorService {
	return &DoctorService{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

// Create validates the input, assigns id and created_at, and stores the doctor.
func (s *DoctorService) Create(ctx context.Context, in model.DoctorInput) (*model.Doctor, error) {
	doctor := &model.Doctor{}
	var err error

	if doctor.Name, err = doctorRules.name.check(in.Name); err != nil {
		return nil, err
	}
	if doctor.City, err = doctorRules.city.check(in.City); err != nil {
		return nil, err
	}
	if doctor.Specialty, err = doctorRules.specialty.check(in.Specialty); err != nil {
		return nil, err
	}
	if doctor.ContactInfo, err = doctorRules.contactInfo.check(in.ContactInfo); err != nil {
		return nil, err
	}
	if doctor.ImageURL, err = doctorRules.imageURL.check(in.ImageURL); err != nil {
		return nil, err
	}

	doctor.ID = xid.New().String()
	doctor.CreatedAt = s.clock.Now()

	if err := s.repo.Create(ctx, doctor); err != nil {
		s.logger.Error("failed to create doctor",
			slog.String("name", doctor.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating doctor: %w", err)
	}

	s.logger.Info("doctor created",
		slog.String("id", doctor.ID),
		slog.String("city", doctor.City),
	)
	return doctor, nil
}

// Get returns apperror.ErrNotFound if the doctor doesn't exist.
func (s *DoctorService) Get(ctx context.Context, id string) (*model.Doctor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "doctor ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List returns doctors matching the filter. Filter terms are trimmed;
// blank terms do not filter.
func (s *DoctorService) List(ctx context.Context, filter model.DoctorFilter, opts repository.ListOptions) ([]model.Doctor, error) {
	filter.City = strings.TrimSpace(filter.City)
	filter.Specialty = strings.TrimSpace(filter.Specialty)

	doctors, err := s.repo.List(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing doctors: %w", err)
	}
	return doctors, nil
}

// Update applies only the fields present in patch.
//
// PRESENCE, NOT ZERO VALUES:
// An omitted key never changes the stored value. A required field sent as
// null or blank is rejected; image_url sent as null or "" is cleared. A
// payload with no recognised key at all is rejected with "No data to update".
func (s *DoctorService) Update(ctx context.Context, id string, patch model.DoctorPatch) (*model.Doctor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "doctor ID is required")
	}
	if patch.IsEmpty() {
		return nil, errNoData
	}

	for _, f := range []struct {
		rule fieldRule
		opt  *model.Optional[string]
	}{
		{doctorRules.name, &patch.Name},
		{doctorRules.city, &patch.City},
		{doctorRules.specialty, &patch.Specialty},
		{doctorRules.contactInfo, &patch.ContactInfo},
		{doctorRules.imageURL, &patch.ImageURL},
	} {
		if err := f.rule.checkPatch(f.opt); err != nil {
			return nil, err
		}
	}

	doctor, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("doctor updated",
		slog.String("id", id),
		slog.Int("fields", len(patch.Changes())),
	)
	return doctor, nil
}

// Delete removes the doctor permanently. A second delete is NotFound.
func (s *DoctorService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "doctor ID is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("doctor deleted", slog.String("id", id))
	return nil
}
