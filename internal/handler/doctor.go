// Package handler contains the HTTP handlers of the association API.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (path params, query params, body)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, JSON body)
//
// Handlers hold no business rules. Validation lives in the services and
// comes back as apperror values, which writeError maps to status codes.
// Each handler depends on a small interface, so tests can hand it a fake.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
	"github.com/sakif/medassoc/internal/service"
)

// DoctorService is what DoctorHandler needs; *service.DoctorService implements it.
type DoctorService interface {
	Create(ctx context.Context, in model.DoctorInput) (*model.Doctor, error)
	Get(ctx context.Context, id string) (*model.Doctor, error)
	List(ctx context.Context, filter model.DoctorFilter, opts repository.ListOptions) ([]model.Doctor, error)
	Update(ctx context.Context, id string, patch model.DoctorPatch) (*model.Doctor, error)
	Delete(ctx context.Context, id string) error
}

// DoctorHandler serves /api/doctors.
type DoctorHandler struct {
	doctors DoctorService
	logger  *slog.Logger
}

func NewDoctorHandler(doctors DoctorService, logger *slog.Logger) *DoctorHandler {
	return &DoctorHandler{doctors: doctors, logger: logger}
}

// HandleList returns doctors, optionally filtered.
//
// HTTP: GET /api/doctors?city=&specialty=&skip=0&limit=100
//
// city and specialty are case-insensitive substring matches. Public.
func (h *DoctorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	filter := model.DoctorFilter{
		City:      q.Get("city"),
		Specialty: q.Get("specialty"),
	}

	doctors, err := h.doctors.List(r.Context(), filter, opts)
	if err != nil {
		h.logger.Error("listing doctors", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	if doctors == nil {
		doctors = []model.Doctor{}
	}
	writeJSON(w, http.StatusOK, doctors)
}

// HandleGet returns one doctor.
//
// HTTP: GET /api/doctors/{id}
func (h *DoctorHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	doctor, err := h.doctors.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

// HandleCreate adds a doctor.
//
// HTTP: POST /api/doctors (bearer)
// REQUEST BODY: {"name", "city", "specialty", "contact_info", "image_url"?}
// RESPONSE: 201 with the stored doctor, including id and created_at.
func (h *DoctorHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.DoctorInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	doctor, err := h.doctors.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doctor)
}

// HandleUpdate applies a partial update.
//
// HTTP: PUT /api/doctors/{id} (bearer)
//
// Only keys present in the body change. {"image_url": null} clears the
// image; {} is rejected with "No data to update".
func (h *DoctorHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.DoctorPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	doctor, err := h.doctors.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

// HandleDelete removes a doctor.
//
// HTTP: DELETE /api/doctors/{id} (bearer)
// RESPONSE: 200 {"message": "Doctor deleted successfully"}; 404 if absent.
func (h *DoctorHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.doctors.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Doctor deleted successfully"})
}

// listOptions reads skip and limit. Out-of-range values are a 400, not clamped.
func listOptions(r *http.Request) (repository.ListOptions, error) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		return repository.ListOptions{}, err
	}
	limit, err := queryInt(r, "limit", service.DefaultListLimit)
	if err != nil {
		return repository.ListOptions{}, err
	}
	return service.NewListOptions(skip, limit)
}
