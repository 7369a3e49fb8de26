// Package cli provides the back-office operator command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/app"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/config"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/module/resource"
)

// Env is what the commands need from a wired application.
type Env interface {
	Resources() resource.Service
	Registry() *resource.Registry
	DB() *gorm.DB
	Logger() *slog.Logger
	Close()
}

// Opener builds an Env from a configuration file path.
type Opener func(configPath string) (Env, error)

// OpenApp loads configuration and wires the full application.
func OpenApp(configPath string) (Env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create app: %w", err)
	}
	return a, nil
}

type options struct {
	configPath string
	envFile    string
	subject    string
	open       Opener
}

// NewRootCmd builds the command tree. open is called lazily by the commands
// that need a database.
func NewRootCmd(open Opener) *cobra.Command {
	opts := &options{open: open}

	root := &cobra.Command{
		Use:   "backoffice",
		Short: "Operator tools for the store back office",
		Long: `backoffice runs maintenance tasks against the same database and asset
store as the HTTP server: schema migration, demo data, exports and
lifecycle actions (trash, restore, permanent delete).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.envFile == "" {
				return nil
			}
			if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load env file: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "configs/config.yaml", "Path to configuration file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Optional dotenv file with APP__ overrides")
	root.PersistentFlags().StringVar(&opts.subject, "subject", "cli-operator", "Subject recorded on lifecycle events")

	root.AddCommand(
		newResourcesCmd(),
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newExportCmd(opts),
		newApplyCmd(opts),
	)
	return root
}

// Execute runs the command line against the real application.
func Execute() {
	if err := NewRootCmd(OpenApp).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// caller is the identity commands act as. Command-line access implies
// database credentials, so the caller carries the admin capability.
func (o *options) caller() domain.Caller {
	return domain.Caller{Subject: o.subject, Admin: true}
}

// withEnv opens the application, runs fn and releases it.
func (o *options) withEnv(fn func(Env) error) error {
	if o.open == nil {
		return errors.New("no application opener configured")
	}
	env, err := o.open(o.configPath)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}
