// Command admin performs out-of-band administration of the admin credential.
// No HTTP route changes credentials; this is the only way.
//
// USAGE:
//
//	go run ./cmd/admin reset-password -user admin@medassoc.com -password '...'
//	go run ./cmd/admin disable -user admin@medassoc.com
//	go run ./cmd/admin enable  -user admin@medassoc.com
//
// Disabling takes effect immediately: tokens already issued stop working at
// the next request, because every bearer request re-reads the credential.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/medassoc/internal/auth"
	"github.com/sakif/medassoc/internal/config"
	"github.com/sakif/medassoc/internal/repository/backend"
	"github.com/sakif/medassoc/internal/service"
)

// credentialAdmin is the part of service.AuthService this command drives.
type credentialAdmin interface {
	ResetPassword(ctx context.Context, username, password string) error
	SetDisabled(ctx context.Context, username string, disabled bool) error
}

var errUsage = errors.New("usage: admin <reset-password|disable|enable> -user NAME [-password PASS]")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, errUsage)
		os.Exit(2)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := cfg.Log.NewLogger(os.Stderr)
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

	// No tokens are issued here; a throwaway key is enough.
	tokens, err := auth.NewTokenService("", time.Minute)
	if err != nil {
		store.Close()
		logger.Error("creating token service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	svc := service.NewAuthService(store.Credentials(), tokens, auth.NewPasswordService(), logger)

	err = run(ctx, svc, os.Args[1:], os.Stdout)
	store.Close()
	if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, errUsage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("admin command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, svc credentialAdmin, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	user := fs.String("user", "", "admin username")
	password := fs.String("password", "", "new password (reset-password only)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *user == "" {
		return errUsage
	}

	switch args[0] {
	case "reset-password":
		if *password == "" {
			return errUsage
		}
		if err := svc.ResetPassword(ctx, *user, *password); err != nil {
			return err
		}
		fmt.Fprintf(out, "password reset for %s\n", *user)
	case "disable", "enable":
		disabled := args[0] == "disable"
		if err := svc.SetDisabled(ctx, *user, disabled); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %sd\n", *user, args[0])
	default:
		return errUsage
	}
	return nil
}
