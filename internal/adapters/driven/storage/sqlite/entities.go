package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// ==================== Entity Store ====================

// entityStore implements driven.EntityStore.
type entityStore struct {
	q        querier
	readOnly bool
}

var _ driven.EntityStore = (*entityStore)(nil)

const nodeColumns = `id, key, category, parent_id, path, level, sort_order, name, type_id, type_alias,
	creator_id, writer_id, trashed, published, varies_by_culture, login_name, email, created_at, updated_at`

// Get retrieves an entity by id.
func (s *entityStore) Get(ctx context.Context, category domain.Category, id int64) (*domain.Entity, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ? AND category = ?`, id, category)
	e, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %d: %w", category, id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning node: %w", err)
	}
	if err := s.loadDetails(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Save inserts or updates an entity with its variants and properties.
func (s *entityStore) Save(ctx context.Context, entity *domain.Entity) error {
	if s.readOnly {
		return domain.ErrReadOnlyScope
	}
	if entity == nil || entity.ID <= 0 {
		return fmt.Errorf("%w: entity id must be positive", domain.ErrInvalidInput)
	}
	if !entity.Category.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, entity.Category)
	}

	e := entity.Clone()
	if err := s.placeInTree(ctx, e); err != nil {
		return err
	}

	var oldPath, oldCategory string
	var oldLevel int
	var createdAt sql.NullTime
	err := s.q.QueryRowContext(ctx, `SELECT path, level, category, created_at FROM nodes WHERE id = ?`, e.ID).
		Scan(&oldPath, &oldLevel, &oldCategory, &createdAt)
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("loading existing node: %w", err)
	}
	if exists && oldCategory != e.Category.String() {
		return fmt.Errorf("%w: id %d is a %s", domain.ErrInvalidInput, e.ID, oldCategory)
	}

	now := time.Now().UTC()
	switch {
	case exists && createdAt.Valid:
		e.CreatedAt = createdAt.Time
	case e.CreatedAt.IsZero():
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO nodes (`+nodeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			key = excluded.key,
			parent_id = excluded.parent_id,
			path = excluded.path,
			level = excluded.level,
			sort_order = excluded.sort_order,
			name = excluded.name,
			type_id = excluded.type_id,
			type_alias = excluded.type_alias,
			creator_id = excluded.creator_id,
			writer_id = excluded.writer_id,
			trashed = excluded.trashed,
			published = excluded.published,
			varies_by_culture = excluded.varies_by_culture,
			login_name = excluded.login_name,
			email = excluded.email,
			updated_at = excluded.updated_at
	`, e.ID, e.Key, e.Category, e.ParentID, e.Path, e.Level, e.SortOrder, e.Name, e.TypeID, e.TypeAlias,
		e.CreatorID, e.WriterID, e.Trashed, e.Published, e.VariesByCulture, e.LoginName, e.Email,
		e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving node: %w", err)
	}

	if exists && oldPath != e.Path {
		if err := s.moveDescendants(ctx, e, oldPath, oldLevel); err != nil {
			return err
		}
	}
	return s.saveDetails(ctx, e)
}

// placeInTree derives path, level and trashed state from the parent.
func (s *entityStore) placeInTree(ctx context.Context, e *domain.Entity) error {
	id := e.IDString()
	if !e.Category.IsTree() || e.ParentID == 0 || e.ParentID == -1 {
		e.ParentID = -1
		e.Path = domain.RootID + "," + id
		e.Level = 1
		if e.Category.IsTree() {
			e.Trashed = false
		}
		return nil
	}

	bin := e.Category.RecycleBinID()
	if strconv.FormatInt(e.ParentID, 10) == bin {
		e.Path = domain.RootID + "," + bin + "," + id
		e.Level = 1
		e.Trashed = true
		return nil
	}

	var parentPath string
	var parentLevel int
	err := s.q.QueryRowContext(ctx, `SELECT path, level FROM nodes WHERE id = ? AND category = ?`, e.ParentID, e.Category).
		Scan(&parentPath, &parentLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("parent %d: %w", e.ParentID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("loading parent: %w", err)
	}
	if domain.PathContains(parentPath, id) {
		return fmt.Errorf("%w: cannot move %d below itself", domain.ErrInvalidInput, e.ID)
	}
	e.Path = parentPath + "," + id
	e.Level = parentLevel + 1
	e.Trashed = domain.PathContains(e.Path, bin)
	return nil
}

// moveDescendants rewrites the paths below a moved node. The recycle bin
// is always the second path element, so descendants share the node's
// trashed state.
func (s *entityStore) moveDescendants(ctx context.Context, e *domain.Entity, oldPath string, oldLevel int) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE nodes
		SET path = ? || substr(path, ?),
			level = level + ?,
			trashed = ?
		WHERE category = ? AND path LIKE ? || ',%'
	`, e.Path, len(oldPath)+1, e.Level-oldLevel, e.Trashed, e.Category, oldPath)
	if err != nil {
		return fmt.Errorf("moving descendants: %w", err)
	}
	return nil
}

func (s *entityStore) saveDetails(ctx context.Context, e *domain.Entity) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM node_variants WHERE node_id = ?`, e.ID); err != nil {
		return fmt.Errorf("clearing variants: %w", err)
	}
	for _, v := range e.Variants {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO node_variants (node_id, culture, name, published, published_name)
			VALUES (?, ?, ?, ?, ?)
		`, e.ID, v.Culture, v.Name, v.Published, v.PublishedName)
		if err != nil {
			return fmt.Errorf("saving variant %s: %w", v.Culture, err)
		}
	}

	if _, err := s.q.ExecContext(ctx, `DELETE FROM node_properties WHERE node_id = ?`, e.ID); err != nil {
		return fmt.Errorf("clearing properties: %w", err)
	}
	for i, p := range e.Properties {
		value, err := marshalValue(p.Value)
		if err != nil {
			return fmt.Errorf("marshalling %s: %w", p.Alias, err)
		}
		published, err := marshalValue(p.PublishedValue)
		if err != nil {
			return fmt.Errorf("marshalling %s: %w", p.Alias, err)
		}
		_, err = s.q.ExecContext(ctx, `
			INSERT INTO node_properties (node_id, seq, alias, culture, value, published_value)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.ID, i, p.Alias, p.Culture, value, published)
		if err != nil {
			return fmt.Errorf("saving property %s: %w", p.Alias, err)
		}
	}
	return nil
}

func (s *entityStore) loadDetails(ctx context.Context, e *domain.Entity) error {
	rows, err := s.q.QueryContext(ctx, `
		SELECT culture, name, published, published_name
		FROM node_variants WHERE node_id = ? ORDER BY culture
	`, e.ID)
	if err != nil {
		return fmt.Errorf("querying variants: %w", err)
	}
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.Culture, &v.Name, &v.Published, &v.PublishedName); err != nil {
			rows.Close()
			return fmt.Errorf("scanning variant: %w", err)
		}
		e.Variants = append(e.Variants, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating variants: %w", err)
	}

	rows, err = s.q.QueryContext(ctx, `
		SELECT alias, culture, value, published_value
		FROM node_properties WHERE node_id = ? ORDER BY seq
	`, e.ID)
	if err != nil {
		return fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.Property
		var value, published sql.NullString
		if err := rows.Scan(&p.Alias, &p.Culture, &value, &published); err != nil {
			return fmt.Errorf("scanning property: %w", err)
		}
		if p.Value, err = unmarshalValue(value); err != nil {
			return fmt.Errorf("unmarshalling %s: %w", p.Alias, err)
		}
		if p.PublishedValue, err = unmarshalValue(published); err != nil {
			return fmt.Errorf("unmarshalling %s: %w", p.Alias, err)
		}
		e.Properties = append(e.Properties, p)
	}
	return rows.Err()
}

// Delete removes an entity and its descendants.
func (s *entityStore) Delete(ctx context.Context, category domain.Category, id int64) error {
	if s.readOnly {
		return domain.ErrReadOnlyScope
	}
	var path string
	err := s.q.QueryRowContext(ctx, `SELECT path FROM nodes WHERE id = ? AND category = ?`, id, category).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", category, id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("loading node: %w", err)
	}

	if _, err := s.q.ExecContext(ctx, `
		DELETE FROM public_access WHERE node_id IN (
			SELECT id FROM nodes WHERE id = ? OR (category = ? AND path LIKE ? || ',%')
		)
	`, id, category, path); err != nil {
		return fmt.Errorf("deleting protection: %w", err)
	}
	if _, err := s.q.ExecContext(ctx, `
		DELETE FROM nodes WHERE id = ? OR (category = ? AND path LIKE ? || ',%')
	`, id, category, path); err != nil {
		return fmt.Errorf("deleting node: %w", err)
	}
	return nil
}

// PagedDescendants returns the descendants of id ordered by path.
func (s *entityStore) PagedDescendants(ctx context.Context, category domain.Category, id int64, page, size int) ([]*domain.Entity, int, error) {
	var path string
	err := s.q.QueryRowContext(ctx, `SELECT path FROM nodes WHERE id = ? AND category = ?`, id, category).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%s %d: %w", category, id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("loading node: %w", err)
	}
	return s.paged(ctx, `category = ? AND path LIKE ? || ',%'`, []any{category, path}, page, size)
}

// PagedOfTypes returns entities of the given types ordered by path.
func (s *entityStore) PagedOfTypes(ctx context.Context, category domain.Category, typeIDs []int64, page, size int) ([]*domain.Entity, int, error) {
	if len(typeIDs) == 0 {
		return nil, 0, nil
	}
	args := []any{category}
	for _, t := range typeIDs {
		args = append(args, t)
	}
	where := `category = ? AND type_id IN (` + placeholders(len(typeIDs)) + `)`
	return s.paged(ctx, where, args, page, size)
}

// PagedAll returns every entity of a category ordered by path.
func (s *entityStore) PagedAll(ctx context.Context, category domain.Category, page, size int) ([]*domain.Entity, int, error) {
	return s.paged(ctx, `category = ?`, []any{category}, page, size)
}

func (s *entityStore) paged(ctx context.Context, where string, args []any, page, size int) ([]*domain.Entity, int, error) {
	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting nodes: %w", err)
	}
	if size < 1 || page < 0 || page*size >= total {
		return nil, total, nil
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM nodes WHERE `+where+`
		ORDER BY path, id LIMIT ? OFFSET ?
	`, append(args, size, page*size)...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying nodes: %w", err)
	}

	var out []*domain.Entity
	for rows.Next() {
		e, err := scanNode(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scanning node: %w", err)
		}
		out = append(out, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating nodes: %w", err)
	}

	for _, e := range out {
		if err := s.loadDetails(ctx, e); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// IsPathPublished reports whether every ancestor is published and not trashed.
func (s *entityStore) IsPathPublished(ctx context.Context, entity *domain.Entity) (bool, error) {
	if entity.Category.IsTree() && domain.PathContains(entity.Path, entity.Category.RecycleBinID()) {
		return false, nil
	}

	self := entity.IDString()
	var ancestors []any
	for _, p := range entity.PathIDs() {
		if p == domain.RootID || p == self {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return false, fmt.Errorf("%w: bad path %q", domain.ErrInvalidInput, entity.Path)
		}
		ancestors = append(ancestors, id)
	}
	if len(ancestors) == 0 {
		return true, nil
	}

	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM nodes
		WHERE id IN (`+placeholders(len(ancestors))+`) AND published = 1 AND trashed = 0
	`, ancestors...).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking ancestors: %w", err)
	}
	return n == len(ancestors), nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*domain.Entity, error) {
	var e domain.Entity
	var category string
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&e.ID, &e.Key, &category, &e.ParentID, &e.Path, &e.Level, &e.SortOrder, &e.Name,
		&e.TypeID, &e.TypeAlias, &e.CreatorID, &e.WriterID, &e.Trashed, &e.Published, &e.VariesByCulture,
		&e.LoginName, &e.Email, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Category = domain.Category(category)
	if createdAt.Valid {
		e.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		e.UpdatedAt = updatedAt.Time
	}
	return &e, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func marshalValue(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalValue(s sql.NullString) (any, error) {
	if !s.Valid {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return nil, err
	}
	return v, nil
}
