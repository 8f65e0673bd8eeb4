package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/model"
)

func newTestDoctorService(t *testing.T) (*DoctorService, *fakeDoctorRepo) {
	t.Helper()
	repo := &fakeDoctorRepo{}
	return NewDoctorService(repo, steppingClock(), testLogger()), repo
}

func validDoctor() model.DoctorInput {
	return model.DoctorInput{
		Name:        "Dr. Ana Souza",
		City:        "Belém",
		Specialty:   "Cardiology",
		ContactInfo: "ana@example.org",
	}
}

// =========================================================================
// CREATE
// =========================================================================

func TestDoctorCreate_Success(t *testing.T) {
	svc, repo := newTestDoctorService(t)

	in := validDoctor()
	in.Name = "  Dr. Ana Souza  "
	d, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if d.ID == "" {
		t.Error("expected doctor to have an ID")
	}
	if d.Name != "Dr. Ana Souza" {
		t.Errorf("Name = %q, want trimmed %q", d.Name, "Dr. Ana Souza")
	}
	if d.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if len(repo.doctors) != 1 {
		t.Errorf("stored %d doctors, want 1", len(repo.doctors))
	}
}

func TestDoctorCreate_AssignsDistinctIDs(t *testing.T) {
	svc, _ := newTestDoctorService(t)

	a, err := svc.Create(context.Background(), validDoctor())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b, err := svc.Create(context.Background(), validDoctor())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a.ID == b.ID {
		t.Errorf("two creates share ID %q", a.ID)
	}
	if !b.CreatedAt.After(a.CreatedAt) {
		t.Errorf("CreatedAt not increasing: %v then %v", a.CreatedAt, b.CreatedAt)
	}
}

func TestDoctorCreate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.DoctorInput)
		field  string
	}{
		{"blank name", func(in *model.DoctorInput) { in.Name = "   " }, "name"},
		{"missing city", func(in *model.DoctorInput) { in.City = "" }, "city"},
		{"missing specialty", func(in *model.DoctorInput) { in.Specialty = "" }, "specialty"},
		{"missing contact", func(in *model.DoctorInput) { in.ContactInfo = "" }, "contact_info"},
		{"name too long", func(in *model.DoctorInput) { in.Name = strings.Repeat("a", MaxShortText+1) }, "name"},
		{"contact too long", func(in *model.DoctorInput) { in.ContactInfo = strings.Repeat("x", MaxContactInfo+1) }, "contact_info"},
		{"bad image scheme", func(in *model.DoctorInput) { in.ImageURL = "javascript:alert(1)" }, "image_url"},
		{"protocol-relative image", func(in *model.DoctorInput) { in.ImageURL = "//evil.example/x.png" }, "image_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestDoctorService(t)
			in := validDoctor()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
			if len(repo.doctors) != 0 {
				t.Error("invalid doctor was stored")
			}
		})
	}
}

func TestDoctorCreate_NameAtLimitCountsCharacters(t *testing.T) {
	svc, _ := newTestDoctorService(t)

	in := validDoctor()
	in.Name = strings.Repeat("é", MaxShortText)
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("Create() with %d two-byte characters error = %v", MaxShortText, err)
	}
}

func TestDoctorCreate_AcceptsUploadPath(t *testing.T) {
	svc, _ := newTestDoctorService(t)

	in := validDoctor()
	in.ImageURL = "/uploads/3f2a.png"
	d, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if d.ImageURL != "/uploads/3f2a.png" {
		t.Errorf("ImageURL = %q", d.ImageURL)
	}
}

func TestDoctorCreate_StoreDown(t *testing.T) {
	svc, repo := newTestDoctorService(t)
	repo.err = errStoreDown

	_, err := svc.Create(context.Background(), validDoctor())
	if !errors.Is(err, errStoreDown) {
		t.Errorf("error = %v, want wrapped errStoreDown", err)
	}
}

// =========================================================================
// GET / LIST
// =========================================================================

func TestDoctorGet(t *testing.T) {
	svc, _ := newTestDoctorService(t)
	created, _ := svc.Create(context.Background(), validDoctor())

	found, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found.Name != created.Name {
		t.Errorf("Name = %q, want %q", found.Name, created.Name)
	}

	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(context.Background(), " "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Get(blank) error = %v, want ErrValidation", err)
	}
}

func TestDoctorList_FilterTrimmed(t *testing.T) {
	svc, _ := newTestDoctorService(t)
	ctx := context.Background()

	svc.Create(ctx, validDoctor())
	other := validDoctor()
	other.City = "Recife"
	other.Specialty = "Dermatology"
	svc.Create(ctx, other)

	got, err := svc.List(ctx, model.DoctorFilter{City: "  BELÉM "}, defaultList(t))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].City != "Belém" {
		t.Errorf("List(city=BELÉM) = %+v, want the Belém doctor", got)
	}

	all, _ := svc.List(ctx, model.DoctorFilter{City: "   "}, defaultList(t))
	if len(all) != 2 {
		t.Errorf("blank filter returned %d doctors, want 2", len(all))
	}
}

// =========================================================================
// UPDATE
// =========================================================================

func TestDoctorUpdate_PartialPatch(t *testing.T) {
	svc, _ := newTestDoctorService(t)
	ctx := context.Background()
	in := validDoctor()
	in.ImageURL = "https://cdn.example.org/ana.jpg"
	created, _ := svc.Create(ctx, in)

	updated, err := svc.Update(ctx, created.ID, model.DoctorPatch{City: model.Some(" Recife ")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.City != "Recife" {
		t.Errorf("City = %q, want %q", updated.City, "Recife")
	}
	if updated.Name != created.Name || updated.ImageURL != created.ImageURL {
		t.Errorf("omitted fields changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt changed on update")
	}
}

func TestDoctorUpdate_NullClearsOptional(t *testing.T) {
	svc, _ := newTestDoctorService(t)
	ctx := context.Background()
	in := validDoctor()
	in.ImageURL = "https://cdn.example.org/ana.jpg"
	created, _ := svc.Create(ctx, in)

	updated, err := svc.Update(ctx, created.ID, model.DoctorPatch{ImageURL: model.Null[string]()})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.ImageURL != "" {
		t.Errorf("ImageURL = %q, want cleared", updated.ImageURL)
	}
}

func TestDoctorUpdate_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		patch model.DoctorPatch
		want  error
	}{
		{"empty patch", model.DoctorPatch{}, apperror.ErrValidation},
		{"null required", model.DoctorPatch{Name: model.Null[string]()}, apperror.ErrValidation},
		{"blank required", model.DoctorPatch{City: model.Some("  ")}, apperror.ErrValidation},
		{"bad url", model.DoctorPatch{ImageURL: model.Some("ftp://x/y")}, apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestDoctorService(t)
			created, _ := svc.Create(context.Background(), validDoctor())

			_, err := svc.Update(context.Background(), created.ID, tt.patch)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if repo.doctors[0] != *created {
				t.Errorf("stored doctor changed after rejected update")
			}
		})
	}
}

func TestDoctorUpdate_EmptyPatchMessage(t *testing.T) {
	svc, _ := newTestDoctorService(t)
	created, _ := svc.Create(context.Background(), validDoctor())

	_, err := svc.Update(context.Background(), created.ID, model.DoctorPatch{})
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Message != "No data to update" {
		t.Errorf("error = %v, want \"No data to update\"", err)
	}
}

func TestDoctorUpdate_NotFound(t *testing.T) {
	svc, _ := newTestDoctorService(t)

	_, err := svc.Update(context.Background(), "ghost", model.DoctorPatch{City: model.Some("Recife")})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE
// =========================================================================

func TestDoctorDelete(t *testing.T) {
	svc, _ := newTestDoctorService(t)
	ctx := context.Background()
	created, _ := svc.Create(ctx, validDoctor())

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second delete: error = %v, want ErrNotFound", err)
	}
}
