package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/concord/internal/cache"
	"github.com/ppiankov/concord/internal/report"
)

var showFormat string

// showCmd re-renders an archived run without recomputing synthesis
var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Re-render an archived run",
	Long: `Show loads a finalized run document from the run archive and renders
it again in the requested format. Synthesis is never recomputed; the
archived document is the finalized, immutable Run.

Example:
  concord show 2f1c... --format markdown`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		archive := openArchive(cfg.Cache.Dir, cfg.Cache.MemoryTTL, cfg.Cache.DiskTTL)
		data, found := archive.Get(cache.Key("run", runID))
		if !found {
			return fmt.Errorf("run %s not found in archive (archives expire after %v)", runID, cfg.Cache.DiskTTL)
		}

		var doc report.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode archived run: %w", err)
		}

		out, err := report.Render(&doc, report.Format(showFormat))
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVar(&showFormat, "format", string(report.FormatJSON), "output format (json, yaml, markdown)")
}
