// Command seed loads the association's sample directory into the configured
// store: the admin credential, the board members and the announced events.
//
// USAGE:
//
//	go run ./cmd/seed            # add the samples next to existing records
//	go run ./cmd/seed -reset     # delete every doctor and event first
//
// It reads the same .env / environment as the server, so STORAGE_URL decides
// which store is seeded. Records go through the services, so the samples are
// validated and stamped exactly like records created over the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/medassoc/internal/auth"
	"github.com/sakif/medassoc/internal/config"
	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
	"github.com/sakif/medassoc/internal/repository/backend"
	"github.com/sakif/medassoc/internal/service"
)

func main() {
	reset := flag.Bool("reset", false, "delete existing doctors and events before seeding")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := cfg.Log.NewLogger(os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("opening store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	s := &seeder{store: store, passwords: auth.NewPasswordService(), logger: logger}
	rep, err := s.run(ctx, cfg.Admin, *reset)
	store.Close()
	if err != nil {
		logger.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("seed complete",
		slog.Bool("admin_created", rep.AdminCreated),
		slog.Int("removed", rep.Removed),
		slog.Int("doctors", rep.Doctors),
		slog.Int("events", rep.Events),
	)
}

type seeder struct {
	store     repository.Store
	passwords *auth.PasswordService
	logger    *slog.Logger
}

type report struct {
	AdminCreated bool
	Removed      int
	Doctors      int
	Events       int
}

func (s *seeder) run(ctx context.Context, admin config.AdminConfig, reset bool) (report, error) {
	var rep report

	// The seeder never issues tokens; a throwaway key is enough.
	tokens, err := auth.NewTokenService("", time.Minute)
	if err != nil {
		return rep, err
	}
	authSvc := service.NewAuthService(s.store.Credentials(), tokens, s.passwords, s.logger)

	rep.AdminCreated, err = authSvc.EnsureAdmin(ctx, service.AdminSeed{
		Username: admin.Username,
		Password: admin.Password,
		FullName: admin.FullName,
	})
	if err != nil {
		return rep, err
	}

	if reset {
		if rep.Removed, err = s.clear(ctx); err != nil {
			return rep, err
		}
	}

	clock := service.NewClock()
	doctors := service.NewDoctorService(s.store.Doctors(), clock, s.logger)
	events := service.NewEventService(s.store.Events(), clock, s.logger)

	for _, in := range sampleDoctors {
		if _, err := doctors.Create(ctx, in); err != nil {
			return rep, fmt.Errorf("seeding doctor %q: %w", in.Name, err)
		}
		rep.Doctors++
	}
	for _, in := range sampleEvents {
		if _, err := events.Create(ctx, in); err != nil {
			return rep, fmt.Errorf("seeding event %q: %w", in.Title, err)
		}
		rep.Events++
	}
	return rep, nil
}

// clear deletes every doctor and event, a page at a time.
func (s *seeder) clear(ctx context.Context) (int, error) {
	page := repository.ListOptions{Limit: service.MaxListLimit}
	removed := 0

	for {
		list, err := s.store.Doctors().List(ctx, model.DoctorFilter{}, page)
		if err != nil {
			return removed, fmt.Errorf("listing doctors: %w", err)
		}
		if len(list) == 0 {
			break
		}
		for _, d := range list {
			if err := s.store.Doctors().Delete(ctx, d.ID); err != nil {
				return removed, fmt.Errorf("deleting doctor %s: %w", d.ID, err)
			}
			removed++
		}
	}

	for {
		list, err := s.store.Events().List(ctx, page)
		if err != nil {
			return removed, fmt.Errorf("listing events: %w", err)
		}
		if len(list) == 0 {
			break
		}
		for _, e := range list {
			if err := s.store.Events().Delete(ctx, e.ID); err != nil {
				return removed, fmt.Errorf("deleting event %s: %w", e.ID, err)
			}
			removed++
		}
	}
	return removed, nil
}
