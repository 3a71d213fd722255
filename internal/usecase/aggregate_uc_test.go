// File: internal/usecase/aggregate_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"

	"afk-code-redeemer/internal/domain"
	"afk-code-redeemer/internal/domain/ports/adapter"

	"github.com/google/go-cmp/cmp"
)

func TestCollect_DedupIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	agg := NewAggregatorUseCase([]adapter.SourceScraper{
		&fakeScraper{name: "alpha", codes: []string{"ABC123", "WINTER2024"}},
		&fakeScraper{name: "beta", codes: []string{"abc123", "spring25"}},
	}, testLogger())

	got, err := agg.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var codes []string
	for _, c := range got {
		codes = append(codes, c.Code)
	}
	want := []string{"ABC123", "WINTER2024", "SPRING25"}
	if diff := cmp.Diff(want, codes); diff != "" {
		t.Fatalf("merged codes mismatch (-want +got):\n%s", diff)
	}
	// First occurrence wins: the surviving candidate carries alpha's source.
	if got[0].Source != "alpha" {
		t.Fatalf("dup source = %q, want alpha", got[0].Source)
	}
}

func TestCollect_FailingSourceIsSkipped(t *testing.T) {
	t.Parallel()

	agg := NewAggregatorUseCase([]adapter.SourceScraper{
		&fakeScraper{name: "alpha", err: errors.New("503 from upstream")},
		&fakeScraper{name: "beta", codes: []string{"CODE1"}},
	}, testLogger())

	got, err := agg.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 1 || got[0].Code != "CODE1" {
		t.Fatalf("got %v, want just CODE1", got)
	}
}

func TestCollect_AllSourcesFail(t *testing.T) {
	t.Parallel()

	agg := NewAggregatorUseCase([]adapter.SourceScraper{
		&fakeScraper{name: "alpha", err: errors.New("down")},
		&fakeScraper{name: "beta", err: errors.New("down")},
	}, testLogger())

	got, err := agg.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}

func TestCollectSource(t *testing.T) {
	t.Parallel()

	agg := NewAggregatorUseCase([]adapter.SourceScraper{
		&fakeScraper{name: "alpha", codes: []string{"CODE1", "code1", "CODE2"}},
		&fakeScraper{name: "beta", codes: []string{"CODE3"}},
	}, testLogger())

	got, err := agg.CollectSource(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("CollectSource: %v", err)
	}
	var codes []string
	for _, c := range got {
		codes = append(codes, c.Code)
	}
	if diff := cmp.Diff([]string{"CODE1", "CODE2"}, codes); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}

	if _, err := agg.CollectSource(context.Background(), "gamma"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown source err = %v, want ErrNotFound", err)
	}
}

func TestCollect_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := NewAggregatorUseCase([]adapter.SourceScraper{
		&fakeScraper{name: "alpha", codes: []string{"CODE1"}},
	}, testLogger())

	if _, err := agg.Collect(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
