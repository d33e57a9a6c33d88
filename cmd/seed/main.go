package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"technofest/internal/cache"
	"technofest/internal/config"
	"technofest/internal/dashboard"
	"technofest/internal/db"
	"technofest/internal/logger"
	"technofest/internal/model"
	"technofest/internal/notify"
	"technofest/internal/repository"
	"technofest/internal/service"
	"technofest/internal/store"
)

// seedActor is recorded as createdBy on seeded events.
const seedActor = "seed"

var backupOutput string

// openStore is swapped in tests.
var openStore = db.OpenStore

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "seed",
		Short:        "Operator tasks against the technofest store",
		SilenceUsage: true,
	}

	eventsCmd := &cobra.Command{
		Use:   "events <file.yaml>",
		Short: "Create events listed in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s store.Store, loc *time.Location) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer f.Close()

				inputs, err := parseEvents(f)
				if err != nil {
					return err
				}
				svc := service.NewEventService(repository.NewEventRepository(s), nil, nil, loc)
				created, failed := seedEvents(ctx, svc, inputs)
				fmt.Fprintf(cmd.OutOrStdout(), "created %d events, %d failed\n", created, failed)
				if failed > 0 {
					return fmt.Errorf("%d events failed validation", failed)
				}
				return nil
			})
		},
	}

	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the admin set",
	}
	adminCmd.AddCommand(
		&cobra.Command{
			Use:   "grant <uid>",
			Short: "Give a user admin access",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd.Context(), func(ctx context.Context, s store.Store, loc *time.Location) error {
					if err := adminService(s, loc).GrantAdmin(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "granted admin to %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "revoke <uid>",
			Short: "Remove a user's admin access",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd.Context(), func(ctx context.Context, s store.Store, loc *time.Location) error {
					if err := adminService(s, loc).RevokeAdmin(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "revoked admin from %s\n", args[0])
					return nil
				})
			},
		},
	)

	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Write events, users and registrations as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s store.Store, loc *time.Location) error {
				out := cmd.OutOrStdout()
				if backupOutput != "" {
					f, err := os.Create(backupOutput)
					if err != nil {
						return fmt.Errorf("create %s: %w", backupOutput, err)
					}
					defer f.Close()
					out = f
				}
				return writeBackup(ctx, adminService(s, loc), out)
			})
		},
	}
	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "file to write instead of stdout")

	root.AddCommand(eventsCmd, adminCmd, backupCmd)
	return root
}

// withStore opens the configured store for the duration of fn.
func withStore(ctx context.Context, fn func(ctx context.Context, s store.Store, loc *time.Location) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()
	logger.SetupDefault(os.Stderr, cfg.LogLevel)

	// Writes are announced on redis so running servers reload their mirrors.
	broker := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer broker.Close()
	if err := broker.Ping(ctx); err != nil {
		slog.Warn("redis unavailable, running servers will not see these writes until restart", slog.Any("error", err))
	}

	backend, err := openStore(cfg, broker)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Store.Close(); err != nil {
			slog.Warn("close store", slog.Any("error", err))
		}
	}()
	return fn(ctx, backend.Store, cfg.Location())
}

func adminService(s store.Store, loc *time.Location) service.AdminService {
	return service.NewAdminService(s, dashboard.NewReporter(s, nil, nil, loc), notify.NewCenter(nil))
}

// parseEvents reads a YAML list of events.
func parseEvents(r io.Reader) ([]service.EventInput, error) {
	var events []model.Event
	if err := yaml.NewDecoder(r).Decode(&events); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode events: %w", err)
	}
	inputs := make([]service.EventInput, 0, len(events))
	for _, e := range events {
		inputs = append(inputs, service.EventInput{
			Title:            e.Title,
			Description:      e.Description,
			Category:         e.Category,
			Date:             e.Date,
			Time:             e.Time,
			Venue:            e.Venue,
			RegistrationLink: e.RegistrationLink,
			ImageURL:         e.ImageURL,
			MaxParticipants:  e.MaxParticipants,
		})
	}
	return inputs, nil
}

// seedEvents creates every input, logging and counting the ones that fail.
func seedEvents(ctx context.Context, svc service.EventService, inputs []service.EventInput) (created, failed int) {
	for _, in := range inputs {
		event, err := svc.Create(ctx, seedActor, in)
		if err != nil {
			slog.Error("seed event", slog.String("title", in.Title), slog.Any("error", err))
			failed++
			continue
		}
		slog.Info("seeded event", slog.String("event_id", event.ID), slog.String("title", event.Title))
		created++
	}
	return created, failed
}

func writeBackup(ctx context.Context, svc service.AdminService, w io.Writer) error {
	backup, err := svc.Backup(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(backup)
}
