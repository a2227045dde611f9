package services

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// pathCacheSize bounds the published-path memo used while paging.
const pathCacheSize = 10000

// pageFunc fetches one page and the total number of matches.
type pageFunc func(page int) ([]*domain.Entity, int, error)

// forEachPage pages through fetch while page*size is below the total
// reported by the previous page.
func forEachPage(ctx context.Context, size int, fetch pageFunc, each func([]*domain.Entity) error) error {
	total := 1
	for page := 0; page*size < total; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		items, n, err := fetch(page)
		if err != nil {
			return fmt.Errorf("fetch page %d: %w", page, err)
		}
		total = n
		if len(items) == 0 {
			return nil
		}
		if err := each(items); err != nil {
			return err
		}
	}
	return nil
}

// publishedPaths memoizes path publication while walking content ordered
// by path. Each entry maps a node id to whether that node and all its
// ancestors are published, so siblings share one store lookup.
type publishedPaths struct {
	store driven.EntityStore
	cache *lru.Cache[int64, bool]
}

func newPublishedPaths(store driven.EntityStore) *publishedPaths {
	cache, _ := lru.New[int64, bool](pathCacheSize)
	return &publishedPaths{store: store, cache: cache}
}

// isPublished reports whether e is published and visible through its path.
func (p *publishedPaths) isPublished(ctx context.Context, e *domain.Entity) (bool, error) {
	if !e.Published || e.Trashed {
		p.cache.Add(e.ID, false)
		return false, nil
	}

	parentOK, ok := p.cache.Get(e.ParentID)
	if !ok {
		var err error
		parentOK, err = p.store.IsPathPublished(ctx, e)
		if err != nil {
			return false, fmt.Errorf("path published %d: %w", e.ID, err)
		}
		p.cache.Add(e.ParentID, parentOK)
	}

	p.cache.Add(e.ID, parentOK)
	return parentOK, nil
}
