// File: internal/usecase/directory_uc_test.go
package usecase

import (
	"context"
	"testing"

	"circles-platform/internal/domain"
	"circles-platform/internal/domain/model"
)

func mustCircle(t *testing.T, id, name, owner string) *model.Circle {
	t.Helper()
	c, err := model.NewCircle(id, name, owner)
	if err != nil {
		t.Fatalf("NewCircle(%s): %v", id, err)
	}
	return c
}

func TestDirectoryUseCase_LoadForUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	circles := newMemCircleRepo()
	uc := NewDirectoryUseCase(circles, newMemSelectedStore())

	// u-1 owns two circles and is a member of a third. The owned circle
	// "Beta" also lists u-1 as a member to exercise dedup.
	for _, c := range []*model.Circle{
		mustCircle(t, "c-beta", "Beta", "u-1"),
		mustCircle(t, "c-alpha", "Alpha", "u-1"),
		mustCircle(t, "c-gamma", "Gamma", "u-2"),
		mustCircle(t, "c-other", "Other", "u-3"),
	} {
		if err := circles.Save(ctx, nil, c); err != nil {
			t.Fatalf("save circle: %v", err)
		}
	}
	circles.addMember("c-gamma", "u-1")
	circles.addMember("c-beta", "u-1")

	got, err := uc.LoadForUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("LoadForUser: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d circles, want 3", len(got))
	}
	wantOrder := []string{"Alpha", "Beta", "Gamma"}
	for i, c := range got {
		if c.Name != wantOrder[i] {
			t.Fatalf("position %d = %q, want %q", i, c.Name, wantOrder[i])
		}
	}

	if _, err := uc.LoadForUser(ctx, ""); err != domain.ErrInvalidArgument {
		t.Fatalf("empty user id: got %v, want ErrInvalidArgument", err)
	}
}

func TestDirectoryUseCase_Select(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	circles := newMemCircleRepo()
	store := newMemSelectedStore()
	uc := NewDirectoryUseCase(circles, store)

	if err := circles.Save(ctx, nil, mustCircle(t, "c-1", "Family", "u-1")); err != nil {
		t.Fatalf("save circle: %v", err)
	}
	if err := circles.Save(ctx, nil, mustCircle(t, "c-2", "Club", "u-2")); err != nil {
		t.Fatalf("save circle: %v", err)
	}
	circles.addMember("c-2", "u-1")

	// Selecting before anything is chosen yields empty.
	sel, err := uc.Selected(ctx, "u-1")
	if err != nil {
		t.Fatalf("Selected: %v", err)
	}
	if sel != "" {
		t.Fatalf("initial selection = %q, want empty", sel)
	}

	if err := uc.Select(ctx, "u-1", "c-2"); err != nil {
		t.Fatalf("Select membership circle: %v", err)
	}
	sel, err = uc.Selected(ctx, "u-1")
	if err != nil {
		t.Fatalf("Selected: %v", err)
	}
	if sel != "c-2" {
		t.Fatalf("selection = %q, want c-2", sel)
	}

	// A circle the user neither owns nor belongs to is rejected.
	if err := uc.Select(ctx, "u-1", "c-unknown"); err != domain.ErrNotFound {
		t.Fatalf("foreign circle: got %v, want ErrNotFound", err)
	}
	sel, _ = uc.Selected(ctx, "u-1")
	if sel != "c-2" {
		t.Fatalf("selection after rejected select = %q, want c-2", sel)
	}
}
