// File: internal/usecase/directory_uc.go
package usecase

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"circles-platform/internal/domain"
	"circles-platform/internal/domain/model"
	"circles-platform/internal/domain/ports/repository"
)

// DirectoryUseCase loads the set of circles a user owns or belongs to and
// tracks the currently selected one. Strictly read-only over circle and plan
// rows.
type DirectoryUseCase struct {
	circles  repository.CircleRepository
	selected repository.SelectedCircleStore
}

func NewDirectoryUseCase(circles repository.CircleRepository, selected repository.SelectedCircleStore) *DirectoryUseCase {
	return &DirectoryUseCase{circles: circles, selected: selected}
}

// LoadForUser runs the owned and membership queries concurrently and merges
// the results deduplicated by circle id. Ordering between the two queries is
// irrelevant; the final list is sorted by name for stable output.
func (uc *DirectoryUseCase) LoadForUser(ctx context.Context, userID string) ([]*model.Circle, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var owned, member []*model.Circle
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		owned, err = uc.circles.ListOwned(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		member, err = uc.circles.ListMemberships(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(owned)+len(member))
	out := make([]*model.Circle, 0, len(owned)+len(member))
	for _, c := range append(owned, member...) {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Select records the user's current circle after verifying membership.
func (uc *DirectoryUseCase) Select(ctx context.Context, userID, circleID string) error {
	list, err := uc.LoadForUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, c := range list {
		if c.ID == circleID {
			return uc.selected.SetSelected(ctx, userID, circleID)
		}
	}
	return domain.ErrNotFound
}

// Selected returns the user's current circle id, empty when none is set.
func (uc *DirectoryUseCase) Selected(ctx context.Context, userID string) (string, error) {
	return uc.selected.GetSelected(ctx, userID)
}
