package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/concord/internal/cache"
	"github.com/ppiankov/concord/internal/llm"
	"github.com/ppiankov/concord/internal/model"
)

// LLMWorker adapts an LLM provider to the Worker contract. Each Run builds
// one extraction prompt from the corpus reference and the prior snapshot,
// sends it through the provider, and parses the completion into validated
// Findings. Provider failures surface as worker errors; they never abort the
// Run.
type LLMWorker struct {
	workerID string
	provider llm.Provider
	cfg      *model.Config
	sections []string
	model    string

	// snapshotCache memoizes the serialized snapshot by digest so repeated
	// dispatches within a Run don't re-marshal the same merged state.
	snapshotCache cache.Cache
}

// NewLLMWorker creates an LLM-backed worker. sections limits what the worker
// reports on; empty means all sections.
func NewLLMWorker(workerID string, provider llm.Provider, cfg *model.Config, sections []string, modelName string) (*LLMWorker, error) {
	if workerID == "" {
		return nil, fmt.Errorf("llm worker requires an id")
	}
	if provider == nil {
		return nil, fmt.Errorf("llm worker %s: no provider configured", workerID)
	}
	return &LLMWorker{
		workerID:      workerID,
		provider:      provider,
		cfg:           cfg,
		sections:      sections,
		model:         modelName,
		snapshotCache: cache.NewMemoryCache(10*time.Minute, 15*time.Minute),
	}, nil
}

// ID returns the worker identifier
func (w *LLMWorker) ID() string { return w.workerID }

// Kind groups all LLM-backed workers under one dispatch rate bucket
func (w *LLMWorker) Kind() string { return "llm" }

// Run executes one extraction round against the provider.
func (w *LLMWorker) Run(ctx context.Context, req Request) (Result, error) {
	snapshotJSON, err := w.serializeSnapshot(req)
	if err != nil {
		return Result{}, fmt.Errorf("serialize snapshot: %w", err)
	}

	extractReq := llm.ExtractRequest{
		Corpus:       req.Corpus,
		SnapshotJSON: snapshotJSON,
		Sections:     w.sections,
		Model:        w.model,
	}
	extractReq.Prompt = llm.BuildExtractPrompt(extractReq, w.cfg)

	resp, err := w.provider.Extract(ctx, extractReq)
	if err != nil {
		return Result{}, fmt.Errorf("provider %s: %w", w.provider.Name(), err)
	}

	findings, absences, err := llm.ParseFindings(w.workerID, resp.Raw, w.cfg)
	if err != nil {
		return Result{}, fmt.Errorf("provider %s returned unusable completion: %w", w.provider.Name(), err)
	}

	return Result{Findings: findings, Absences: absences}, nil
}

func (w *LLMWorker) serializeSnapshot(req Request) (string, error) {
	if req.Snapshot == nil || len(req.Snapshot.Findings) == 0 {
		return "", nil
	}

	key := cache.Key("snapshot", req.Snapshot.Digest())
	if cached, ok := w.snapshotCache.Get(key); ok {
		return string(cached), nil
	}

	data, err := json.Marshal(req.Snapshot)
	if err != nil {
		return "", err
	}
	_ = w.snapshotCache.Set(key, data, 10*time.Minute)
	return string(data), nil
}
