package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

// =========================================================================
// IN-MEMORY REPOSITORIES
// =========================================================================
//
// Hand-written fakes of the repository interfaces. They store copies, never
// the caller's pointer, so a test can't accidentally mutate stored state.
// The err field lets a test simulate the store being down.

var errStoreDown = errors.New("store down")

type fakeCredentialRepo struct {
	mu    sync.Mutex
	creds map[string]model.Credential
	err   error
}

func newFakeCredentialRepo() *fakeCredentialRepo {
	return &fakeCredentialRepo{creds: make(map[string]model.Credential)}
}

func (f *fakeCredentialRepo) Create(_ context.Context, cred *model.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.creds[cred.Username]; ok {
		return apperror.Conflict("Credential", cred.Username)
	}
	if cred.ID == "" {
		cred.ID = fmt.Sprintf("cred-%d", len(f.creds)+1)
	}
	f.creds[cred.Username] = *cred
	return nil
}

func (f *fakeCredentialRepo) GetByUsername(_ context.Context, username string) (*model.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.creds[username]
	if !ok {
		return nil, apperror.NotFound("Credential", username)
	}
	return &c, nil
}

func (f *fakeCredentialRepo) Update(_ context.Context, cred *model.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.creds[cred.Username]; !ok {
		return apperror.NotFound("Credential", cred.Username)
	}
	f.creds[cred.Username] = *cred
	return nil
}

type fakeDoctorRepo struct {
	mu      sync.Mutex
	doctors []model.Doctor
	err     error
}

func (f *fakeDoctorRepo) Create(_ context.Context, d *model.Doctor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.doctors = append(f.doctors, *d)
	return nil
}

func (f *fakeDoctorRepo) find(id string) int {
	for i := range f.doctors {
		if f.doctors[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeDoctorRepo) GetByID(_ context.Context, id string) (*model.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return nil, apperror.NotFound("Doctor", id)
	}
	d := f.doctors[i]
	return &d, nil
}

func (f *fakeDoctorRepo) List(_ context.Context, filter model.DoctorFilter, opts repository.ListOptions) ([]model.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var matched []model.Doctor
	for _, d := range f.doctors {
		if filter.Matches(d) {
			matched = append(matched, d)
		}
	}
	return page(matched, opts), nil
}

func (f *fakeDoctorRepo) Update(_ context.Context, id string, patch model.DoctorPatch) (*model.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return nil, apperror.NotFound("Doctor", id)
	}
	patch.Apply(&f.doctors[i])
	d := f.doctors[i]
	return &d, nil
}

func (f *fakeDoctorRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return apperror.NotFound("Doctor", id)
	}
	f.doctors = append(f.doctors[:i], f.doctors[i+1:]...)
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []model.Event
}

func (f *fakeEventRepo) Create(_ context.Context, e *model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeEventRepo) find(id string) int {
	for i := range f.events {
		if f.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return nil, apperror.NotFound("Event", id)
	}
	e := f.events[i]
	return &e, nil
}

func (f *fakeEventRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sorted := append([]model.Event(nil), f.events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return page(sorted, opts), nil
}

func (f *fakeEventRepo) Update(_ context.Context, id string, patch model.EventPatch) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return nil, apperror.NotFound("Event", id)
	}
	patch.Apply(&f.events[i])
	e := f.events[i]
	return &e, nil
}

func (f *fakeEventRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return apperror.NotFound("Event", id)
	}
	f.events = append(f.events[:i], f.events[i+1:]...)
	return nil
}

func page[T any](items []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(items) {
		return []T{}
	}
	items = items[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// steppingClock returns a Clock whose wall time advances one second per call.
func steppingClock() *Clock {
	var mu sync.Mutex
	t := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return newClockAt(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	})
}

func defaultList(t *testing.T) repository.ListOptions {
	t.Helper()
	opts, err := NewListOptions(0, DefaultListLimit)
	if err != nil {
		t.Fatalf("NewListOptions() error = %v", err)
	}
	return opts
}
