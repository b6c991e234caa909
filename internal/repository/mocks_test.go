package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
)

func sampleRun(sessionID, query string) *domain.SearchRun {
	return &domain.SearchRun{
		SessionID: sessionID,
		Query:     query,
		Result: &domain.SearchResult{
			SearchQuery: query,
			Results: []domain.ProductResult{
				{ProductName: "RTX 4070", Price: "$599", Retailer: "TechStore"},
			},
			Metadata: domain.ResultMetadata{SessionID: sessionID, SuccessRate: 1.0},
		},
	}
}

func TestMockRunRepositorySaveAndGet(t *testing.T) {
	repo := NewMockRunRepository()
	ctx := context.Background()

	run := sampleRun("s-1", "rtx 4070")
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if run.CreatedAt.IsZero() {
		t.Error("SaveRun() should set CreatedAt")
	}

	got, err := repo.GetBySessionID(ctx, "s-1")
	if err != nil {
		t.Fatalf("GetBySessionID() error = %v", err)
	}
	if got.Query != "rtx 4070" {
		t.Errorf("Query = %q, want rtx 4070", got.Query)
	}
}

func TestMockRunRepositoryDuplicate(t *testing.T) {
	repo := NewMockRunRepository()
	ctx := context.Background()

	if err := repo.SaveRun(ctx, sampleRun("s-1", "a")); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := repo.SaveRun(ctx, sampleRun("s-1", "b")); !errors.Is(err, domain.ErrDuplicateRun) {
		t.Errorf("SaveRun() error = %v, want ErrDuplicateRun", err)
	}
}

func TestMockRunRepositoryNotFound(t *testing.T) {
	repo := NewMockRunRepository()

	if _, err := repo.GetBySessionID(context.Background(), "missing"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("GetBySessionID() error = %v, want ErrRunNotFound", err)
	}
}

func TestMockRunRepositoryListRecent(t *testing.T) {
	repo := NewMockRunRepository()
	ctx := context.Background()

	for i, sid := range []string{"s-1", "s-2", "s-3"} {
		run := sampleRun(sid, "query")
		run.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		if err := repo.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}

	runs, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRecent() len = %d, want 2", len(runs))
	}
	if runs[0].SessionID != "s-3" {
		t.Errorf("newest first: got %s, want s-3", runs[0].SessionID)
	}
}

func TestMockRunRepositoryListByQuery(t *testing.T) {
	repo := NewMockRunRepository()
	ctx := context.Background()

	repo.SaveRun(ctx, sampleRun("s-1", "rtx 4070 graphics card"))
	repo.SaveRun(ctx, sampleRun("s-2", "mechanical keyboard"))
	repo.SaveRun(ctx, sampleRun("s-3", "RTX 4070 Ti"))

	runs, err := repo.ListByQuery(ctx, "rtx", 0)
	if err != nil {
		t.Fatalf("ListByQuery() error = %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("ListByQuery() len = %d, want 2 (case-insensitive)", len(runs))
	}
}
