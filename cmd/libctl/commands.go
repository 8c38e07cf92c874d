package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"library_management/internal/config"
	"library_management/internal/model"
	"library_management/internal/notify"
	"library_management/internal/repository"
	"library_management/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Library management maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newMigrateCmd(), newSeedCmd(), newOverdueCmd(), newRemindCmd())
	return root
}

// connect opens the pool described by the environment.
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := config.ConnectDB(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := config.AutoMigrate(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample catalog (existing loans are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := service.NewBookService(repository.NewStore(pool)).SeedBooks(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d books\n", n)
			return nil
		},
	}
}

func newOverdueCmd() *cobra.Command {
	var asOfFlag string

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "List books that are past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asOf, err := parseAsOf(asOfFlag, time.Now())
			if err != nil {
				return err
			}
			_, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := service.NewIssueService(service.IssueServiceDeps{Store: repository.NewStore(pool)})
			issues, err := svc.ListOverdue(cmd.Context(), asOf)
			if err != nil {
				return err
			}
			return writeOverdue(cmd.OutOrStdout(), issues, asOf)
		},
	}
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "reference time (YYYY-MM-DD or RFC 3339), default now")
	return cmd
}

func newRemindCmd() *cobra.Command {
	var asOfFlag string

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Text every student holding an overdue book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asOf, err := parseAsOf(asOfFlag, time.Time{})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			locker, closeLocker, err := notify.LockerFromConfig(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer closeLocker()

			svc := service.NewIssueService(service.IssueServiceDeps{
				Store:   repository.NewStore(pool),
				Gateway: notify.GatewayFromConfig(cfg.Twilio),
				Locker:  locker,
				LockTTL: cfg.ReminderLockTTL,
			})
			report, err := svc.DispatchReminders(ctx, asOf)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "reference time (YYYY-MM-DD or RFC 3339), default now")
	return cmd
}

// parseAsOf accepts a calendar date (midnight UTC) or an RFC 3339 instant.
// Empty means now.
func parseAsOf(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func writeOverdue(w io.Writer, issues []model.Issue, asOf time.Time) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintln(w, "No overdue books found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ISSUE\tBOOK\tSTUDENT\tDUE\tDAYS LATE\tFINE SO FAR")
	for _, i := range issues {
		var title, student string
		if i.Book != nil {
			title = i.Book.Title
		}
		if i.Student != nil {
			student = i.Student.Name
		}
		days := service.DaysOverdue(i.DueDate, asOf)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n",
			i.ID, title, student, i.DueDate.Format(dateLayout), days, days*service.DailyFineRate)
	}
	return tw.Flush()
}
