package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/config"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/export"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/module/resource"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/seed"
)

func newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resources the back office manages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range resource.DefaultRegistry().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the resource tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withEnv(func(env Env) error {
				if err := config.Migrate(env.DB()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
				return nil
			})
		},
	}
}

func newSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demonstration catalogue",
		Long: `Insert a small catalogue of categories, products, variants, coupons,
customers, reviews and media. Rows that already exist are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withEnv(func(env Env) error {
				if err := config.Migrate(env.DB()); err != nil {
					return err
				}
				summary, err := seed.Run(cmd.Context(), env.DB(), env.Logger())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "inserted %d rows\n", summary.Total())
				return nil
			})
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export <resource>",
		Short: "Export every active row of a resource",
		Long: `Export every active row of a resource, ignoring paging and filters.

Without --output the document is written to stdout. With --output the file
is only created once the whole document has been rendered.

Examples:
  backoffice export products -o products.csv
  backoffice export coupons --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "csv" && format != "json" {
				return fmt.Errorf("invalid format %q (must be csv or json)", format)
			}
			return opts.withEnv(func(env Env) error {
				snap, err := env.Resources().Export(cmd.Context(), opts.caller(), args[0])
				if err != nil {
					return err
				}

				if format == "json" {
					data, err := json.MarshalIndent(snap.Rows, "", "  ")
					if err != nil {
						return fmt.Errorf("encode rows: %w", err)
					}
					_, err = cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}

				job := export.Job{Columns: snap.Columns, Selection: snap.Rows}
				if output != "" {
					if err := export.WriteFile(cmd.Context(), output, job); err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "exported %d rows to %s\n", len(snap.Rows), output)
					return nil
				}
				data, err := job.Render(cmd.Context())
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the export to this file")
	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv or json")
	return cmd
}

func newApplyCmd(opts *options) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "apply <resource> <SD|RSD|PD> <id>...",
		Short: "Apply a lifecycle transition to records",
		Long: `Apply a lifecycle transition to one or more records of a resource.

  SD   move active records to the trash
  RSD  restore trashed records
  PD   permanently delete trashed records (requires --yes)

Examples:
  backoffice apply products SD prd-cap
  backoffice apply media PD med-old-1 med-old-2 --yes`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseTransition(args[1])
			if err != nil {
				return err
			}
			if t == domain.PermanentDelete && !confirmed {
				return errors.New("permanent delete cannot be undone; pass --yes to confirm")
			}
			return opts.withEnv(func(env Env) error {
				out, err := env.Resources().Apply(cmd.Context(), opts.caller(), args[0], args[2:], string(t))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d affected)\n", out.Message, out.Affected)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm a permanent delete")
	return cmd
}
