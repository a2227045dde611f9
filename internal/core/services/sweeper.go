package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// RetractFunc retracts one document, with descendants, from every index.
type RetractFunc func(ctx context.Context, id string) error

// BulkRetractionSweeper removes every document of a removed type from the
// indexes, discovering the ids by searching each index.
type BulkRetractionSweeper struct {
	registry *IndexRegistry
	retract  RetractFunc
	pageSize int
}

// NewBulkRetractionSweeper creates a sweeper. A page size below one uses
// domain.DefaultSweepPageSize.
func NewBulkRetractionSweeper(registry *IndexRegistry, retract RetractFunc, pageSize int) *BulkRetractionSweeper {
	if pageSize < 1 {
		pageSize = domain.DefaultSweepPageSize
	}
	return &BulkRetractionSweeper{registry: registry, retract: retract, pageSize: pageSize}
}

// Sweep retracts every document whose nodeType is one of typeIDs from the
// indexes accepting category. It returns the number of ids retracted.
//
// Ids are collected for a whole type before any retraction is issued, so
// the paging is not disturbed by deletes landing mid-scan.
func (s *BulkRetractionSweeper) Sweep(ctx context.Context, category domain.Category, typeIDs []int64) (int, error) {
	indexes := s.registry.Accepting(category)
	retracted := 0
	var errs []error

	for _, typeID := range typeIDs {
		term := strconv.FormatInt(typeID, 10)
		seen := make(map[string]bool)
		var ids []string

		for _, idx := range indexes {
			found, err := s.collect(ctx, idx, term)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for _, id := range found {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return retracted, err
			}
			if err := s.retract(ctx, id); err != nil {
				errs = append(errs, fmt.Errorf("retract %s: %w", id, err))
				continue
			}
			retracted++
		}
		logger.Info("swept %d documents of type %d from %s indexes", len(ids), typeID, category)
	}
	return retracted, errors.Join(errs...)
}

// collect pages through idx while page*pageSize is below the reported total.
func (s *BulkRetractionSweeper) collect(ctx context.Context, idx driven.Index, term string) ([]string, error) {
	var ids []string
	total := 1
	for page := 0; page*s.pageSize < total; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := idx.Search(ctx, driven.SearchRequest{
			Field: domain.FieldNodeType,
			Term:  term,
			From:  page * s.pageSize,
			Size:  s.pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", idx.Descriptor().Name, err)
		}
		total = res.Total
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
	}
	return ids, nil
}
