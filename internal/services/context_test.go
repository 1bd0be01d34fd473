package services_test

import (
	"context"
	"testing"

	"torrentify/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithCategory(ctx, "films")
	ctx = services.WithItem(ctx, "Movie.One.2020")
	ctx = services.WithStage(ctx, "package")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if category, ok := services.CategoryFromContext(ctx); !ok || category != "films" {
		t.Fatalf("unexpected category: %v %v", category, ok)
	}
	if item, ok := services.ItemFromContext(ctx); !ok || item != "Movie.One.2020" {
		t.Fatalf("unexpected item: %v %v", item, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "package" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithItem(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.ItemFromContext(ctx); ok {
		t.Fatal("expected no item value")
	}
}
