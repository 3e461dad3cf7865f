package usecase

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
)

type processorFake struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (f *processorFake) ProcessGuide(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	if f.fail[key] {
		return errors.New("broken guide")
	}
	return nil
}

func TestIndexAllContinuesPastFailures(t *testing.T) {
	storage := &storageFake{keys: []string{"b.md", "a.md", "broken.md", "a.meta.yaml"}}
	processor := &processorFake{fail: map[string]bool{"broken.md": true}}
	uc := NewIndexGuidesUseCase(storage, processor, 2, nil)

	report, err := uc.IndexAll(context.Background())
	if err != nil {
		t.Fatalf("IndexAll() error = %v", err)
	}
	if !reflect.DeepEqual(report.Indexed, []string{"a.md", "b.md"}) {
		t.Fatalf("unexpected indexed keys %v", report.Indexed)
	}
	if len(report.Failed) != 1 || report.Failed["broken.md"] == nil {
		t.Fatalf("unexpected failures %v", report.Failed)
	}
	if len(processor.calls) != 3 {
		t.Fatalf("expected sidecar files to be skipped, got %v", processor.calls)
	}
}

func TestIndexAllListError(t *testing.T) {
	uc := NewIndexGuidesUseCase(&storageFake{listErr: errors.New("no dir")}, &processorFake{}, 1, nil)
	if _, err := uc.IndexAll(context.Background()); err == nil {
		t.Fatalf("expected list error")
	}
}
