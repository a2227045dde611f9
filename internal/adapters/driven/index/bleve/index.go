package bleve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Hidden field names.
const (
	fieldCategory = "__category"
	fieldItemType = "__itemType"
	fieldPathIDs  = "__pathIds"
)

// scanPageSize is the page size used when collecting ids to delete.
const scanPageSize = 1000

// Ensure Index implements the interface.
var _ driven.Index = (*Index)(nil)

// Index adapts a bleve index to driven.Index.
type Index struct {
	desc  domain.IndexDescriptor
	index bleve.Index
}

// Open opens the index at desc.Path, creating it if it does not exist.
// An empty path creates an in-memory index.
func Open(desc domain.IndexDescriptor) (*Index, error) {
	if desc.Path == "" {
		return NewMemOnly(desc)
	}

	idx, err := bleve.Open(desc.Path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		if err := os.MkdirAll(filepath.Dir(desc.Path), 0700); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
		idx, err = bleve.New(desc.Path, newMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", desc.Name, err)
	}
	return &Index{desc: desc, index: idx}, nil
}

// NewMemOnly creates an in-memory index.
func NewMemOnly(desc domain.IndexDescriptor) (*Index, error) {
	idx, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index %s: %w", desc.Name, err)
	}
	return &Index{desc: desc, index: idx}, nil
}

// newMapping indexes the routing fields verbatim so term queries match
// exactly. Every other field is mapped dynamically.
func newMapping() mapping.IndexMapping {
	m := bleve.NewIndexMapping()

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name
	exact.Store = false

	for _, name := range []string{fieldCategory, fieldItemType, fieldPathIDs, domain.FieldNodeType, domain.FieldPath} {
		m.DefaultMapping.AddFieldMappingsAt(name, exact)
	}
	return m
}

// Descriptor returns the index configuration.
func (i *Index) Descriptor() domain.IndexDescriptor {
	return i.desc
}

// WriteItems adds or replaces documents in one batch.
func (i *Index) WriteItems(ctx context.Context, items []domain.ValueSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := i.index.NewBatch()
	for _, vs := range items {
		if err := batch.Index(vs.ID, document(vs)); err != nil {
			return fmt.Errorf("indexing %s: %w", vs, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("writing batch: %w", err)
	}
	return nil
}

func document(vs domain.ValueSet) map[string]any {
	doc := vs.Fields.Map()
	doc[fieldCategory] = vs.Category.String()
	doc[fieldItemType] = vs.ItemType
	if path, ok := vs.Fields.First(domain.FieldPath); ok {
		doc[fieldPathIDs] = domain.SplitPath(path)
	}
	return doc
}

// DeleteItems removes documents and every document below them.
func (i *Index) DeleteItems(ctx context.Context, ids []string) error {
	batch := i.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
		below, err := i.collect(ctx, termQuery(fieldPathIDs, id))
		if err != nil {
			return err
		}
		for _, d := range below {
			batch.Delete(d)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("deleting batch: %w", err)
	}
	return nil
}

// RetractItems removes exactly the given documents.
func (i *Index) RetractItems(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := i.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("retracting batch: %w", err)
	}
	return nil
}

// Search runs an exact term query. The id field matches document ids.
func (i *Index) Search(ctx context.Context, req driven.SearchRequest) (*driven.SearchResults, error) {
	if req.Field == "" {
		return nil, fmt.Errorf("%w: search field is required", domain.ErrInvalidInput)
	}

	var q query.Query
	if req.Field == domain.FieldID {
		q = bleve.NewDocIDQuery([]string{req.Term})
	} else {
		q = termQuery(req.Field, req.Term)
	}

	sr := bleve.NewSearchRequestOptions(q, req.Size, req.From, false)
	sr.SortBy([]string{"_id"})
	res, err := i.index.SearchInContext(ctx, sr)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", i.desc.Name, err)
	}

	out := &driven.SearchResults{Total: int(res.Total)}
	for _, hit := range res.Hits {
		out.Hits = append(out.Hits, driven.SearchHit{ID: hit.ID, Score: hit.Score})
	}
	return out, nil
}

func termQuery(field, term string) query.Query {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	return q
}

// collect returns the ids of every document matching q.
func (i *Index) collect(ctx context.Context, q query.Query) ([]string, error) {
	var ids []string
	total := 1
	for from := 0; from < total; from += scanPageSize {
		sr := bleve.NewSearchRequestOptions(q, scanPageSize, from, false)
		sr.SortBy([]string{"_id"})
		res, err := i.index.SearchInContext(ctx, sr)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", i.desc.Name, err)
		}
		total = int(res.Total)
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
	}
	return ids, nil
}

// Count returns the number of documents.
func (i *Index) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := i.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", i.desc.Name, err)
	}
	return int(n), nil
}

// Clear removes every document.
func (i *Index) Clear(ctx context.Context) error {
	ids, err := i.collect(ctx, bleve.NewMatchAllQuery())
	if err != nil {
		return err
	}
	batch := i.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("clearing %s: %w", i.desc.Name, err)
	}
	return nil
}

// Close closes the underlying index.
func (i *Index) Close() error {
	return i.index.Close()
}
