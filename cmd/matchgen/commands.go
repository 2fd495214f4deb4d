package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/imadgeboyega/kiekky-weekly/internal/app"
	"github.com/imadgeboyega/kiekky-weekly/internal/common/utils"
	"github.com/imadgeboyega/kiekky-weekly/internal/config"
	"github.com/imadgeboyega/kiekky-weekly/internal/matching"
	"github.com/imadgeboyega/kiekky-weekly/internal/storage/postgres"
)

var errInvalidMatches = errors.New("stored matches are not mutual")

func (c *cli) generateCmd() *cobra.Command {
	var (
		dryRun     bool
		jsonReport bool
		strict     bool
	)

	cmd := &cobra.Command{
		Use:   "generate <prompt-key>",
		Short: "Generate this week's matches for a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Service.Generate(ctx, args[0], matching.GenerateOptions{DryRun: dryRun})
				if err != nil {
					return err
				}

				if jsonReport {
					if err := c.printJSON(report); err != nil {
						return err
					}
				} else {
					fmt.Fprintln(c.out, report.String())
					for _, e := range report.WriteErrors {
						fmt.Fprintf(c.out, "  write failed: %v\n", e)
					}
				}

				if strict {
					return report.Err()
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute matches without writing records")
	cmd.Flags().BoolVar(&jsonReport, "report-json", false, "print the full run report as JSON")
	cmd.Flags().BoolVar(&strict, "fail-on-write-errors", true, "exit non-zero when any record write failed")
	return cmd
}

func (c *cli) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <prompt-key>",
		Short: "Check that every stored match for a prompt is mutual",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Service.Validate(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, result.String())
				if !result.IsValid {
					return errInvalidMatches
				}
				return nil
			})
		},
	}
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <prompt-key> <user-id>",
		Short: "Print one user's match record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				record, err := a.Service.GetMatchRecord(ctx, args[1], args[0])
				if err != nil {
					return err
				}
				return c.printJSON(record)
			})
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <prompt-key>",
		Short: "Summarise the stored records of a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				stats, err := a.Service.GetPromptStats(ctx, args[0])
				if err != nil {
					return err
				}
				return c.printJSON(stats)
			})
		},
	}
}

func (c *cli) revealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reveal <prompt-key> <user-id> <index>",
		Short: "Reveal one of a user's matches",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("index must be a number: %w", err)
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				record, err := a.Service.RevealMatch(ctx, args[1], args[0], index)
				if err != nil {
					return err
				}
				return c.printJSON(record)
			})
		},
	}
}

func (c *cli) addMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-match <prompt-key> <user-a> <user-b>",
		Short: "Pair two users by hand, keeping both records mutual",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Service.AddManualMatch(ctx, args[0], args[1], args[2]); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "matched %s and %s for %s\n", args[1], args[2], args[0])
				return nil
			})
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				repo, ok := a.Repo.(*postgres.Repository)
				if !ok {
					return fmt.Errorf("migrate needs the %s store, got %s", config.StorePostgres, a.Config.StoreBackend)
				}
				if err := repo.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "schema applied")
				return nil
			})
		},
	}
}

func (c *cli) tokenCmd() *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint an API token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			token, err := utils.GenerateJWT(args[0], role, cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", utils.RoleUser, "token role: admin or user")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
