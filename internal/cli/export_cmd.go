package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sadopc/daytick/internal/export"
	"github.com/sadopc/daytick/internal/store"
)

func newExportCmd(app *App) *cobra.Command {
	var format string
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks and completed sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}

			st, err := store.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer st.Close()

			now := app.Clock.Now()
			data, err := export.Collect(cmd.Context(), st, now)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				dir, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("finding working directory: %w", err)
				}
				path = export.DefaultPath(dir, f, now)
			}
			if err := export.Write(f, data, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks and %d sessions to %s\n", len(data.Tasks), len(data.Sessions), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(export.FormatCSV), "csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default daytick-export-<date>.<format> here)")
	return cmd
}
