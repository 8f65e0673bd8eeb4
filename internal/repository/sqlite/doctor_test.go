package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

func createTestDoctor(t *testing.T, db *DB, name, city, specialty string) *model.Doctor {
	t.Helper()
	doc := &model.Doctor{
		Name:      name,
		City:      city,
		Specialty: specialty,
		CreatedAt: testTime(0),
	}
	if err := db.Doctors().Create(context.Background(), doc); err != nil {
		t.Fatalf("failed to create test doctor: %v", err)
	}
	return doc
}

func TestDoctorCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	doc := &model.Doctor{
		Name:        "Dr. Carlos Mendes",
		City:        "Belém",
		Specialty:   "Cirurgia de Catarata",
		ContactInfo: "(91) 3222-1234",
		ImageURL:    "/uploads/a.png",
		CreatedAt:   testTime(5),
	}
	if err := db.Doctors().Create(ctx, doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if doc.ID == "" {
		t.Fatal("Create() did not set ID")
	}

	found, err := db.Doctors().GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Name != doc.Name || found.City != doc.City || found.ContactInfo != doc.ContactInfo ||
		found.ImageURL != doc.ImageURL {
		t.Errorf("GetByID() = %+v, want %+v", found, doc)
	}
	if !found.CreatedAt.Equal(doc.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", found.CreatedAt, doc.CreatedAt)
	}
}

func TestDoctorGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Doctors().GetByID(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestDoctorList_FiltersCaseInsensitively(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestDoctor(t, db, "Dr. Ana", "Princeton", "Glaucoma")
	createTestDoctor(t, db, "Dr. Bruno", "Trenton", "Retina")
	createTestDoctor(t, db, "Dr. Carla", "PRINCETON", "Retina")
	createTestDoctor(t, db, "Dr. Davi", "BELÉM", "Córnea")

	tests := []struct {
		name   string
		filter model.DoctorFilter
		want   []string
	}{
		{"no filter", model.DoctorFilter{}, []string{"Dr. Ana", "Dr. Bruno", "Dr. Carla", "Dr. Davi"}},
		{"city lowercase", model.DoctorFilter{City: "princeton"}, []string{"Dr. Ana", "Dr. Carla"}},
		{"city substring", model.DoctorFilter{City: "ceto"}, []string{"Dr. Ana", "Dr. Carla"}},
		{"specialty", model.DoctorFilter{Specialty: "RETINA"}, []string{"Dr. Bruno", "Dr. Carla"}},
		{"both", model.DoctorFilter{City: "prince", Specialty: "ret"}, []string{"Dr. Carla"}},
		{"non-ascii", model.DoctorFilter{City: "belém"}, []string{"Dr. Davi"}},
		{"no match", model.DoctorFilter{City: "newark"}, nil},
		{"percent is literal", model.DoctorFilter{City: "%"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Doctors().List(ctx, tt.filter, repository.ListOptions{Limit: 100})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List() returned %d doctors, want %d (%+v)", len(got), len(tt.want), got)
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("got[%d].Name = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}
}

func TestDoctorList_Pagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		createTestDoctor(t, db, name, "Princeton", "Glaucoma")
	}

	page, err := db.Doctors().List(ctx, model.DoctorFilter{}, repository.ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page) != 2 || page[0].Name != "c" || page[1].Name != "d" {
		t.Errorf("List(limit=2, skip=2) = %+v, want c, d", page)
	}

	tail, err := db.Doctors().List(ctx, model.DoctorFilter{}, repository.ListOptions{Limit: 10, Offset: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tail) != 1 {
		t.Errorf("List(skip=4) returned %d, want 1", len(tail))
	}
}

func TestDoctorUpdate_PartialPatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	doc := createTestDoctor(t, db, "Dr. Ana", "Princeton", "Glaucoma")

	updated, err := db.Doctors().Update(ctx, doc.ID, model.DoctorPatch{City: model.Some("Trenton")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.City != "Trenton" {
		t.Errorf("City = %q, want Trenton", updated.City)
	}
	if updated.Name != "Dr. Ana" || updated.Specialty != "Glaucoma" {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(doc.CreatedAt) {
		t.Errorf("CreatedAt changed: %v, want %v", updated.CreatedAt, doc.CreatedAt)
	}

	// The search columns follow the new city.
	got, err := db.Doctors().List(ctx, model.DoctorFilter{City: "trenton"}, repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("List(city=trenton) returned %d, want 1", len(got))
	}
	stale, _ := db.Doctors().List(ctx, model.DoctorFilter{City: "princeton"}, repository.ListOptions{Limit: 10})
	if len(stale) != 0 {
		t.Errorf("List(city=princeton) returned %d after the move, want 0", len(stale))
	}
}

func TestDoctorUpdate_NullClearsOptionalField(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	doc := &model.Doctor{Name: "Dr. Ana", City: "Princeton", Specialty: "Glaucoma", ImageURL: "/uploads/x.png"}
	if err := db.Doctors().Create(ctx, doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := db.Doctors().Update(ctx, doc.ID, model.DoctorPatch{ImageURL: model.Null[string]()})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.ImageURL != "" {
		t.Errorf("ImageURL = %q, want cleared", updated.ImageURL)
	}
}

func TestDoctorUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Doctors().Update(context.Background(), "missing", model.DoctorPatch{Name: model.Some("x")})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestDoctorDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	doc := createTestDoctor(t, db, "Dr. Ana", "Princeton", "Glaucoma")

	if err := db.Doctors().Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := db.Doctors().GetByID(ctx, doc.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete: error = %v, want ErrNotFound", err)
	}
	all, err := db.Doctors().List(ctx, model.DoctorFilter{}, repository.ListOptions{Limit: 100})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("List() after delete returned %d, want 0", len(all))
	}

	if err := db.Doctors().Delete(ctx, doc.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
