package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/concord/internal/model"
)

func TestInvoke_RecoversPanic(t *testing.T) {
	w := &Func{
		WorkerID: "panicky",
		RunFunc: func(ctx context.Context, req Request) (Result, error) {
			panic("detector exploded")
		},
	}

	_, err := Invoke(context.Background(), w, Request{Corpus: "repo"})
	if err == nil {
		t.Fatal("expected error from panicking worker")
	}

	var werr *model.WorkerError
	if !errors.As(err, &werr) {
		t.Fatalf("expected WorkerError, got %T", err)
	}
	if werr.WorkerID != "panicky" {
		t.Errorf("expected worker id carried, got %s", werr.WorkerID)
	}
}

func TestInvoke_WrapsErrors(t *testing.T) {
	cause := errors.New("corpus unreadable")
	w := &Func{
		WorkerID: "broken",
		RunFunc: func(ctx context.Context, req Request) (Result, error) {
			return Result{}, cause
		},
	}

	_, err := Invoke(context.Background(), w, Request{})
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}

func TestInvoke_PassesResultThrough(t *testing.T) {
	f, _ := model.NewFinding("ok", model.SectionStack, "k", "v", model.TypeGeneric, []model.Evidence{{
		SourceKind: model.SourceConfigFile, Weight: 1.0, Locator: "go.mod#L1", CollectedAt: time.Now().UTC(),
	}})
	w := &Func{
		WorkerID: "ok",
		RunFunc: func(ctx context.Context, req Request) (Result, error) {
			return Result{Findings: []model.Finding{f}}, nil
		},
	}

	res, err := Invoke(context.Background(), w, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Findings) != 1 {
		t.Errorf("expected 1 finding, got %d", len(res.Findings))
	}
}

func TestLimiter_PacesByKind(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow("llm") {
		t.Fatal("first launch should be allowed")
	}
	if l.Allow("llm") {
		t.Error("second immediate launch of same kind should be limited")
	}
	// A different kind has its own budget.
	if !l.Allow("static") {
		t.Error("different kind should not share the budget")
	}
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	l := NewLimiter(0.001, 1)
	_ = l.Allow("llm") // drain the burst

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "llm"); err == nil {
		t.Error("expected context deadline error while rate limited")
	}
}
