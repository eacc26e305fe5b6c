package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/concord/internal/cache"
	"github.com/ppiankov/concord/internal/llm"
	"github.com/ppiankov/concord/internal/orchestrate"
	"github.com/ppiankov/concord/internal/report"
)

var (
	planPath    string
	outJSON     string
	outYAML     string
	outMD       string
	runTimeout  time.Duration
	noCache     bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <corpus>",
	Short: "Run a phase plan against a corpus and synthesize a confidence report",
	Long: `Run executes the declared phase plan: each phase dispatches its
workers (in parallel or sequentially), their findings accumulate in
per-worker partitions, and at each phase barrier the synthesis core
classifies certainty, measures corroboration, resolves conflicts, and
recomputes section scores.

The corpus argument is an opaque reference handed to every worker; Concord
itself never reads it.

Example:
  concord run ./myrepo --plan plan.yaml
  concord run repo:example --plan plan.yaml --json report.json --md report.md
  concord run ./myrepo --plan plan.yaml --llm --llm-provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Plan and output flags
	runCmd.Flags().StringVar(&planPath, "plan", "plan.yaml", "phase plan file")
	runCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	runCmd.Flags().StringVar(&outYAML, "yaml", "", "output YAML path (optional)")
	runCmd.Flags().StringVar(&outMD, "md", "", "output Markdown summary path (optional)")

	// Execution flags
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "overall run timeout (0 uses the configured default)")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the run archive")

	// LLM flags
	runCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM-backed workers declared in the plan")
	runCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	runCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runRun(cmd *cobra.Command, args []string) error {
	corpus := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runTimeout > 0 {
		cfg.Orchestrator.RunTimeout = runTimeout
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	cfg.Output.Verbose = verbose

	// Configure LLM if enabled
	var provider llm.Provider
	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		if llmModel != "" {
			cfg.LLM.Model = llmModel
		}

		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			if cfg.LLM.APIKey == "" {
				return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}

		provider, err = llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return fmt.Errorf("configure LLM provider: %w", err)
		}

		probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		available := provider.IsAvailable(probeCtx)
		cancel()
		if !available {
			return fmt.Errorf("LLM provider %s is not reachable", provider.Name())
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ LLM provider %s available\n", provider.Name())
		}
	}

	phases, err := orchestrate.LoadPlan(planPath, cfg, provider)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Corpus: %s\n", corpus)
		fmt.Fprintf(os.Stderr, "Plan: %s (%d phases)\n", planPath, len(phases))
		fmt.Fprintf(os.Stderr, "Run timeout: %v\n", cfg.Orchestrator.RunTimeout)
		fmt.Fprintln(os.Stderr)
	}

	var opts []orchestrate.Option
	if verbose {
		opts = append(opts, orchestrate.WithVerbose(os.Stderr))
	}
	o := orchestrate.New(cfg, opts...)

	res, err := o.Run(context.Background(), corpus, phases)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	doc := report.Build(res)

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Accumulated %d findings across %d phases\n", len(res.Snapshot.Findings), len(res.Run.Phases))
		fmt.Fprintf(os.Stderr, "✓ Resolved %d conflict buckets\n", len(res.Conflicts))
		fmt.Fprintf(os.Stderr, "✓ Overall confidence: %.3f\n", res.Overall.Score)
		fmt.Fprintln(os.Stderr)
	}

	jsonData, err := report.RenderJSON(doc)
	if err != nil {
		return fmt.Errorf("render JSON: %w", err)
	}
	if err := os.WriteFile(outJSON, jsonData, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outJSON, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outJSON)
	}

	if outYAML != "" {
		data, err := report.RenderYAML(doc)
		if err != nil {
			return fmt.Errorf("render YAML: %w", err)
		}
		if err := os.WriteFile(outYAML, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", outYAML, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outYAML)
		}
	}

	if outMD != "" {
		data, err := report.RenderMarkdown(doc)
		if err != nil {
			return fmt.Errorf("render Markdown: %w", err)
		}
		if err := os.WriteFile(outMD, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", outMD, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outMD)
		}
	}

	if cfg.Cache.Enabled {
		archive := openArchive(cfg.Cache.Dir, cfg.Cache.MemoryTTL, cfg.Cache.DiskTTL)
		if err := archive.Set(cache.Key("run", res.Run.ID), jsonData, cfg.Cache.DiskTTL); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not archive run: %v\n", err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "✓ Archived run %s\n", res.Run.ID)
		}
	}

	fmt.Printf("Run %s: %s, overall confidence %.3f\n", res.Run.ID, res.Run.Status, res.Overall.Score)
	return nil
}

// openArchive builds the layered run archive, defaulting its directory to
// ~/.concord/cache.
func openArchive(dir string, memoryTTL, diskTTL time.Duration) *cache.LayeredCache {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(home, ".concord", "cache")
		} else {
			dir = ".concord-cache"
		}
	}
	return cache.NewLayeredCache(memoryTTL, dir, diskTTL)
}
