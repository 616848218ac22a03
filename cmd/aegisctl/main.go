package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"aegis-secure/internal/config"
	"aegis-secure/internal/domain/models"
	"aegis-secure/internal/domain/services"
	"aegis-secure/internal/infrastructure/cache"
	"aegis-secure/internal/infrastructure/database"
	"aegis-secure/internal/infrastructure/database/repository"
	"aegis-secure/internal/infrastructure/mailbox"
	"aegis-secure/internal/infrastructure/push"
	"aegis-secure/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "aegisctl",
	Short:         "Aegis Secure operations tool",
	Long:          "Runs migrations and maintenance tasks against the Aegis Secure database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		return database.MigrateUp(cfg.Database.MigrateURL(), log)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		if steps < 1 {
			return errors.New("--steps must be at least 1")
		}
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		return database.MigrateDown(cfg.Database.MigrateURL(), steps, log)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete a user's stored messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		channel, _ := cmd.Flags().GetString("channel")
		if userID == "" {
			return errors.New("--user is required")
		}

		var channels []models.Channel
		switch channel {
		case "sms":
			channels = []models.Channel{models.ChannelSMS}
		case "mail":
			channels = []models.Channel{models.ChannelEmail}
		case "all":
			channels = []models.Channel{models.ChannelSMS, models.ChannelEmail}
		default:
			return fmt.Errorf("unknown channel %q", channel)
		}

		return withEnv(cmd.Context(), func(env *toolEnv) error {
			removed, err := services.NewHistoryService(env.repos.History, env.dedup, env.log).Clear(cmd.Context(), userID, channels...)
			if removed == nil {
				return err
			}
			if perr := printJSON(removed); perr != nil {
				return perr
			}
			return err
		})
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print a user's risk histogram",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		rawMode, _ := cmd.Flags().GetString("mode")
		days, _ := cmd.Flags().GetInt("days")
		if userID == "" {
			return errors.New("--user is required")
		}
		mode, ok := models.ParseDashboardMode(rawMode)
		if !ok {
			return fmt.Errorf("unknown mode %q", rawMode)
		}
		if cmd.Flags().Changed("days") {
			if err := services.ValidateDays(days); err != nil {
				return err
			}
		}

		return withEnv(cmd.Context(), func(env *toolEnv) error {
			hist, err := services.NewRiskBucketAggregator(env.repos.SMS, env.repos.Emails).Histogram(cmd.Context(), userID, mode, days)
			if err != nil {
				return err
			}
			return printJSON(hist)
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch new mail for every linked account once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd.Context(), func(env *toolEnv) error {
			repos, cfg, log := env.repos, env.cfg, env.log
			transport, err := push.NewTransport(cmd.Context(), cfg.Push, log)
			if err != nil {
				log.Warn().Err(err).Msg("push transport unavailable")
			}

			notifier := services.NewRiskNotificationService(
				services.NewNotificationPolicy(repos.Profiles, log),
				services.NewPushDispatcher(transport, log),
				nil,
				log,
			)
			ingestion := services.NewIngestionService(
				repos.Emails,
				repos.SMS,
				env.dedup,
				services.NewRiskClassifierClient(cfg.Classifier.URL, cfg.Classifier.Timeout, log),
				notifier,
				services.NewSenderColorResolver(repos.SenderColors, log),
				log,
			)
			mailboxes := services.NewMailboxService(repos.Accounts, mailbox.NewGmailConnector(cfg.Gmail, log), ingestion,
				cfg.Gmail.FetchMaxResults, cfg.Gmail.LinkMaxResults, log)

			stored, err := mailboxes.SyncAll(cmd.Context())
			if perr := printJSON(map[string]int{"new_inserted": stored}); perr != nil {
				return perr
			}
			return err
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (defaults to ./config/config.yaml)")

	migrateDownCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)

	clearCmd.Flags().String("user", "", "User ID")
	clearCmd.Flags().String("channel", "all", "Channel to clear: sms, mail or all")

	dashboardCmd.Flags().String("user", "", "User ID")
	dashboardCmd.Flags().String("mode", "both", "Channels to aggregate: sms, mail or both")
	dashboardCmd.Flags().Int("days", 0, "Only count messages from the last N days")

	rootCmd.AddCommand(migrateCmd, clearCmd, dashboardCmd, syncCmd)
}

func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     "console",
		TimeFormat: cfg.Logger.TimeFormat,
	})
	return cfg, log, nil
}

// toolEnv is the connected state shared by commands that touch stored data
type toolEnv struct {
	cfg   *config.Config
	log   *logger.Logger
	repos *repository.Repositories
	dedup *services.Deduplicator
}

// withEnv connects to PostgreSQL and, when enabled, to the Redis dedup cache
// the API server uses. Unlike the server, an unreachable Redis is fatal here:
// clearing rows without their cached keys would leave them marked as seen.
func withEnv(ctx context.Context, fn func(*toolEnv) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	var seen services.SeenCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisCache.Close()
		seen = redisCache
	}

	return fn(&toolEnv{
		cfg:   cfg,
		log:   log,
		repos: repository.NewRepositories(db.Pool()),
		dedup: services.NewDeduplicator(seen, cfg.Dedup.CacheTTL, log),
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
