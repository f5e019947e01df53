// Command leadsd runs the lead marketplace API and its maintenance tasks.
//
//	@title			Leads API
//	@version		1.0
//	@description	Jobs, provider matching, lead lifecycle and coin wallets.
//	@BasePath		/api/v1
//	@securityDefinitions.apikey	UserID
//	@in							header
//	@name						X-User-ID
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-leads-backend/docs"
	"github.com/tbourn/go-leads-backend/internal/config"
	"github.com/tbourn/go-leads-backend/internal/repo"
	"github.com/tbourn/go-leads-backend/internal/sysutil"
)

// Set with -ldflags "-X main.version=...".
var version = ""

// app carries what every subcommand needs once the root pre-run finished.
type app struct {
	cfg config.Config
	log zerolog.Logger
}

func (a *app) version() string {
	return sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")
}

// openDB connects to the configured store and brings the schema up to date.
func (a *app) openDB() (*gorm.DB, error) {
	dsn := a.cfg.DB.Path
	if a.cfg.DB.Driver == repo.DriverPostgres {
		dsn = a.cfg.DB.URL
	}
	db, err := repo.Open(a.cfg.DB.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.cfg.DB.Driver, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func preRun(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		_ = godotenv.Load(envFile)

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		a.cfg = cfg
		a.log = sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
		return nil
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "leadsd",
		Short:         "Local services lead marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentPreRunE = preRun(a)

	root.AddCommand(serveCmd(a))
	root.AddCommand(migrateCmd(a))
	root.AddCommand(nextIDCmd(a))
	root.AddCommand(reconcileCmd(a))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print the build version",
		Run:   func(cmd *cobra.Command, _ []string) { fmt.Fprintln(cmd.OutOrStdout(), a.version()) },
	})
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("leadsd failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
