package worker

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/concord/internal/model"
)

// StaticWorker replays Findings declared in a YAML manifest. It exercises
// the full worker contract without any detector logic, which makes it the
// reference adapter for demos and tests and a convenient escape hatch for
// feeding hand-curated findings into a run.
type StaticWorker struct {
	id   string
	path string
	cfg  *model.Config
}

// NewStaticWorker creates a manifest-backed worker
func NewStaticWorker(id, manifestPath string, cfg *model.Config) *StaticWorker {
	return &StaticWorker{id: id, path: manifestPath, cfg: cfg}
}

func (w *StaticWorker) ID() string { return w.id }

// Kind marks static workers as cheap local dispatches
func (w *StaticWorker) Kind() string { return "static" }

// Manifest is the YAML shape of a static worker's declared output.
type Manifest struct {
	Findings []ManifestFinding `yaml:"findings"`
	Absences []ManifestAbsence `yaml:"absences"`
}

// ManifestFinding declares one Finding. Evidence weight may be omitted, in
// which case the source-kind weight table supplies it.
type ManifestFinding struct {
	Section  string             `yaml:"section"`
	Key      string             `yaml:"key"`
	Value    string             `yaml:"value"`
	Type     string             `yaml:"type"`
	Evidence []ManifestEvidence `yaml:"evidence"`
}

// ManifestEvidence declares one evidence item.
type ManifestEvidence struct {
	Kind    string   `yaml:"kind"`
	Weight  *float64 `yaml:"weight"`
	Locator string   `yaml:"locator"`
	Snippet string   `yaml:"snippet"`
}

// ManifestAbsence declares a documented "nothing to report" for a section.
type ManifestAbsence struct {
	Section string `yaml:"section"`
	Reason  string `yaml:"reason"`
}

// Run loads the manifest and converts it into validated Findings.
func (w *StaticWorker) Run(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		return Result{}, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Result{}, fmt.Errorf("parse manifest: %w", err)
	}

	var result Result
	now := time.Now().UTC()

	for i, mf := range manifest.Findings {
		evidence := make([]model.Evidence, 0, len(mf.Evidence))
		for _, me := range mf.Evidence {
			kind := model.SourceKind(me.Kind)
			weight := w.cfg.SourceWeight(kind)
			if me.Weight != nil {
				weight = *me.Weight
			}
			evidence = append(evidence, model.Evidence{
				SourceKind:  kind,
				Weight:      weight,
				Locator:     me.Locator,
				Snippet:     me.Snippet,
				CollectedAt: now,
			})
		}

		f, err := model.NewFinding(w.id, model.SectionName(mf.Section), mf.Key, mf.Value,
			model.FindingType(mf.Type), evidence)
		if err != nil {
			return result, fmt.Errorf("manifest finding %d: %w", i, err)
		}
		result.Findings = append(result.Findings, f)
	}

	for _, ma := range manifest.Absences {
		result.Absences = append(result.Absences, model.Absence{
			Section:  model.SectionName(ma.Section),
			Reason:   ma.Reason,
			WorkerID: w.id,
		})
	}

	return result, nil
}
