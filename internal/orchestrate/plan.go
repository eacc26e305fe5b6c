package orchestrate

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/concord/internal/llm"
	"github.com/ppiankov/concord/internal/model"
	"github.com/ppiankov/concord/internal/worker"
)

// PlanFile is the YAML shape of a declared phase plan.
type PlanFile struct {
	Phases []PlanPhase `yaml:"phases"`
}

// PlanPhase declares one phase: mode, timeout, and its workers.
type PlanPhase struct {
	Name    string       `yaml:"name"`
	Mode    string       `yaml:"mode"`    // parallel (default) or sequential
	Timeout string       `yaml:"timeout"` // Go duration; empty uses the configured default
	Workers []PlanWorker `yaml:"workers"`
}

// PlanWorker declares one worker by adapter type.
type PlanWorker struct {
	ID       string   `yaml:"id"`
	Type     string   `yaml:"type"`               // static or llm
	Manifest string   `yaml:"manifest,omitempty"` // static: path to the findings manifest
	Sections []string `yaml:"sections,omitempty"` // llm: sections to report on
	Model    string   `yaml:"model,omitempty"`    // llm: per-worker model override
}

// LoadPlan reads a phase plan and constructs its workers. provider may be
// nil when no LLM backend is configured; a plan declaring llm workers then
// fails to load rather than silently running without them.
func LoadPlan(path string, cfg *model.Config, provider llm.Provider) ([]Phase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	var file PlanFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if len(file.Phases) == 0 {
		return nil, fmt.Errorf("plan %s declares no phases", path)
	}

	seen := make(map[string]bool)
	var phases []Phase
	for i, pp := range file.Phases {
		if pp.Name == "" {
			pp.Name = fmt.Sprintf("phase-%d", i+1)
		}

		mode := model.ModeParallel
		switch pp.Mode {
		case "", string(model.ModeParallel):
		case string(model.ModeSequential):
			mode = model.ModeSequential
		default:
			return nil, fmt.Errorf("phase %s: unknown mode %q (parallel or sequential)", pp.Name, pp.Mode)
		}

		var timeout time.Duration
		if pp.Timeout != "" {
			timeout, err = time.ParseDuration(pp.Timeout)
			if err != nil {
				return nil, fmt.Errorf("phase %s: invalid timeout %q: %w", pp.Name, pp.Timeout, err)
			}
		}

		if len(pp.Workers) == 0 {
			return nil, fmt.Errorf("phase %s declares no workers", pp.Name)
		}

		phase := Phase{Name: pp.Name, Mode: mode, Timeout: timeout}
		for _, pw := range pp.Workers {
			if pw.ID == "" {
				return nil, fmt.Errorf("phase %s: worker missing id", pp.Name)
			}
			if seen[pw.ID] {
				return nil, fmt.Errorf("duplicate worker id %q", pw.ID)
			}
			seen[pw.ID] = true

			w, err := buildWorker(pw, cfg, provider)
			if err != nil {
				return nil, fmt.Errorf("phase %s: %w", pp.Name, err)
			}
			phase.Workers = append(phase.Workers, w)
		}
		phases = append(phases, phase)
	}

	return phases, nil
}

func buildWorker(pw PlanWorker, cfg *model.Config, provider llm.Provider) (worker.Worker, error) {
	switch pw.Type {
	case "static":
		if pw.Manifest == "" {
			return nil, fmt.Errorf("static worker %s requires a manifest path", pw.ID)
		}
		return worker.NewStaticWorker(pw.ID, pw.Manifest, cfg), nil

	case "llm":
		if provider == nil {
			return nil, fmt.Errorf("llm worker %s declared but no LLM provider is configured", pw.ID)
		}
		return worker.NewLLMWorker(pw.ID, provider, cfg, pw.Sections, pw.Model)

	default:
		return nil, fmt.Errorf("worker %s: unknown type %q (static or llm)", pw.ID, pw.Type)
	}
}
