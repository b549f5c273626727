package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/cradle/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client)
}

func TestSaveAndGetChild(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	child := &domain.Child{
		ID:        1,
		FirstName: "Jane",
		LastName:  "Doe",
		Slug:      "jane-doe",
		BirthDate: "2021-04-01",
		Data: map[string]domain.EntryMap{
			"feedings": {"id": float64(42), "type": "Breast milk"},
		},
	}

	if err := store.SaveChild(ctx, child); err != nil {
		t.Fatalf("SaveChild() error = %v", err)
	}

	got, err := store.GetChild(ctx, 1)
	if err != nil {
		t.Fatalf("GetChild() error = %v", err)
	}
	if got.Slug != "jane-doe" || got.FirstName != "Jane" {
		t.Errorf("GetChild() = %+v, want jane-doe", got)
	}
	if got.Data["feedings"]["type"] != "Breast milk" {
		t.Errorf("GetChild().Data[feedings] = %v, want latest feeding preserved", got.Data["feedings"])
	}
}

func TestGetChildMissing(t *testing.T) {
	store := testStore(t)

	if _, err := store.GetChild(context.Background(), 99); err == nil {
		t.Error("GetChild(99) = nil error, want error")
	}
}

func TestGetAllChildren(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	children := []*domain.Child{
		{ID: 1, Slug: "jane-doe"},
		{ID: 2, Slug: "john-doe"},
	}
	if err := store.SaveChildrenMany(ctx, children); err != nil {
		t.Fatalf("SaveChildrenMany() error = %v", err)
	}

	got, err := store.GetAllChildren(ctx)
	if err != nil {
		t.Fatalf("GetAllChildren() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("GetAllChildren() returned %d children, want 2", len(got))
	}
}

func TestDeleteChild(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveChild(ctx, &domain.Child{ID: 1, Slug: "jane-doe"}); err != nil {
		t.Fatalf("SaveChild() error = %v", err)
	}
	if err := store.DeleteChild(ctx, 1); err != nil {
		t.Fatalf("DeleteChild() error = %v", err)
	}

	if _, err := store.GetChild(ctx, 1); err == nil {
		t.Error("GetChild(1) succeeded after delete, want error")
	}
	all, err := store.GetAllChildren(ctx)
	if err != nil {
		t.Fatalf("GetAllChildren() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("GetAllChildren() after delete = %d children, want 0", len(all))
	}
}

func TestServiceCallStats(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.IncrementServiceCalls(ctx, "add_feeding"); err != nil {
			t.Fatalf("IncrementServiceCalls() error = %v", err)
		}
	}
	if err := store.IncrementServiceCalls(ctx, "add_sleep"); err != nil {
		t.Fatalf("IncrementServiceCalls() error = %v", err)
	}

	stats, err := store.GetServiceCallStats(ctx)
	if err != nil {
		t.Fatalf("GetServiceCallStats() error = %v", err)
	}
	if stats["add_feeding"] != 3 {
		t.Errorf("stats[add_feeding] = %d, want 3", stats["add_feeding"])
	}
	if stats["add_sleep"] != 1 {
		t.Errorf("stats[add_sleep] = %d, want 1", stats["add_sleep"])
	}
}

func TestExtractChildID(t *testing.T) {
	tests := []struct {
		key     string
		want    int
		wantErr bool
	}{
		{"cradle:child:7", 7, false},
		{"cradle:child:", 0, true},
		{"cradle:child:abc", 0, true},
		{"other:7", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ExtractChildID(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractChildID(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractChildID(%q) = %d, want %d", tt.key, got, tt.want)
			}
		})
	}
}
