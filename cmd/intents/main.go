// Package main is the entrypoint for the intents service and CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/morezero/intents/internal/config"
	"github.com/morezero/intents/internal/server"
	"github.com/morezero/intents/pkg/catalog"
	"github.com/morezero/intents/pkg/commsutil"
	"github.com/morezero/intents/pkg/db"
	"github.com/morezero/intents/pkg/dispatcher"
	"github.com/morezero/intents/pkg/probe"
	"github.com/morezero/intents/pkg/resolver"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "intents",
		Short: "Build platform action requests and resolve them against installed handlers",
		Long: `intents builds platform action requests (dial, sms, map, share, market, ...)
and resolves ordered fallback lists against the handlers installed on a host.

Environment: COMMS_URL, INTENTS_SUBJECT, HANDLER_CATALOG_FILE, DATABASE_URL,
MIGRATION_PATH, PLATFORM_VERSION, DEFAULT_SMS_PACKAGE. See README.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return server.Run()
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the intents service (NATS, HTTP health, metrics)",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return server.Run()
			},
		},
		newBuildersCmd(),
		newBuildCmd(),
		newResolveCmd(),
		newMigrateCmd(),
		&cobra.Command{
			Use:   "clear",
			Short: "Remove all installed handlers and permissions; schema is preserved",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return runClear()
			},
		},
		&cobra.Command{
			Use:   "seed [catalog]",
			Short: "Install the handlers of a catalog file into the database",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := ""
				if len(args) > 0 {
					path = args[0]
				}
				return runSeed(cmd.OutOrStdout(), path)
			},
		},
		&cobra.Command{
			Use:   "ensure-db [name]",
			Short: "Create the database (default intents_test) on the DATABASE_URL host",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name := "intents_test"
				if len(args) > 0 && args[0] != "" {
					name = args[0]
				}
				return runEnsureDB(cmd.OutOrStdout(), name)
			},
		},
	)
	return root
}

func newBuildersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "builders",
		Short: "List the available request builders",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range dispatcher.BuilderNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

type builderFlags struct {
	args            string
	platformVersion string
}

func (f *builderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.args, "args", "", "builder arguments as a JSON object")
	cmd.Flags().StringVar(&f.platformVersion, "platform", "", "host platform version (default PLATFORM_VERSION)")
}

func newBuildCmd() *cobra.Command {
	var flags builderFlags
	cmd := &cobra.Command{
		Use:   "build <builder>",
		Short: "Print the candidate requests a builder produces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadBuilderConfig(flags)
			if err != nil {
				return err
			}
			caps, err := cfg.Platform()
			if err != nil {
				return err
			}
			candidates, err := dispatcher.Build(caps, args[0], builderArgs(flags))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), candidates)
		},
	}
	flags.register(cmd)
	return cmd
}

func newResolveCmd() *cobra.Command {
	var flags builderFlags
	var catalogPath string
	var remote bool
	cmd := &cobra.Command{
		Use:   "resolve <builder>",
		Short: "Resolve a builder's candidates against a handler catalog or a running service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadBuilderConfig(flags)
			if err != nil {
				return err
			}
			ctx := context.Background()

			var result resolver.Result
			if remote {
				result, err = resolveRemote(ctx, cfg, args[0], builderArgs(flags))
			} else {
				result, err = resolveLocal(ctx, cfg, catalogPath, args[0], builderArgs(flags))
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "handler catalog file (default HANDLER_CATALOG_FILE)")
	cmd.Flags().BoolVar(&remote, "remote", false, "resolve through the service at COMMS_URL")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}
	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run database migrations",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return runMigrateUp()
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrateStatus(cmd.OutOrStdout())
			},
		},
	)
	return migrate
}

func loadBuilderConfig(flags builderFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.platformVersion != "" {
		cfg.PlatformVersion = flags.platformVersion
	}
	return cfg, nil
}

func builderArgs(flags builderFlags) json.RawMessage {
	if flags.args == "" {
		return nil
	}
	return json.RawMessage(flags.args)
}

func resolveLocal(ctx context.Context, cfg *config.Config, catalogPath, builder string, args json.RawMessage) (resolver.Result, error) {
	caps, err := cfg.Platform()
	if err != nil {
		return resolver.Result{Index: -1}, err
	}
	candidates, err := dispatcher.Build(caps, builder, args)
	if err != nil {
		return resolver.Result{Index: -1}, err
	}

	if catalogPath == "" {
		catalogPath = cfg.CatalogFile
	}
	f, err := catalog.LoadCatalog(catalogPath)
	if err != nil {
		return resolver.Result{Index: -1}, err
	}
	store := catalog.NewStore(f)
	p := probe.NewRegistry(probe.NewRegistryParams{Handlers: store, Permissions: store})
	return resolver.Resolve(ctx, p, candidates...)
}

func resolveRemote(ctx context.Context, cfg *config.Config, builder string, args json.RawMessage) (resolver.Result, error) {
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName+"-cli")
	if err != nil {
		return resolver.Result{Index: -1}, err
	}
	defer nc.Close()

	client := dispatcher.NewClient(dispatcher.NewClientParams{
		Conn:    nc,
		Subject: cfg.IntentsSubject,
		Timeout: cfg.RequestTimeout,
	})
	return client.Resolve(ctx, dispatcher.ResolveParams{Builder: builder, Args: args})
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadDBConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMigrateUp() error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrations); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus(w io.Writer) error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	applied, files, err := db.MigrationStatus(ctx, pool, cfg.MigrationPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Migration files: %d\nSchema applied:  %v\n", files, applied)
	return nil
}

func runClear() error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.ClearHandlers(ctx, pool); err != nil {
		return fmt.Errorf("clear handlers: %w", err)
	}
	return nil
}

func runSeed(w io.Writer, catalogOverride string) error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	path := catalogOverride
	if path == "" {
		path = cfg.CatalogFile
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	n, err := db.SeedFromCatalog(ctx, pool, path)
	if err != nil {
		return fmt.Errorf("seed handler catalog: %w", err)
	}
	fmt.Fprintf(w, "Seeded %d handlers.\n", n)
	return nil
}

func runEnsureDB(w io.Writer, dbName string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	targetURL, err := withDatabase(cfg.DatabaseURL, dbName)
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(context.Background(), targetURL); err != nil {
		return err
	}
	fmt.Fprintf(w, "Database %q is ready.\n", dbName)
	return nil
}

// withDatabase replaces the database in databaseURL, keeping the query (e.g. sslmode).
func withDatabase(databaseURL, dbName string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	u.Path = "/" + dbName
	return u.String(), nil
}
