package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// ==================== Protection Service ====================

// protectionService implements driven.ProtectionService.
type protectionService struct {
	q        querier
	readOnly bool
}

var _ driven.ProtectionService = (*protectionService)(nil)

// IsProtected returns the rule of the deepest protected node on path.
func (s *protectionService) IsProtected(ctx context.Context, path string) (*domain.ProtectionEntry, bool, error) {
	depth := make(map[int64]int)
	var args []any
	for i, p := range domain.SplitPath(path) {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		depth[id] = i
		args = append(args, id)
	}
	if len(args) == 0 {
		return nil, false, nil
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, node_id, login_node_id, no_access_node_id
		FROM public_access WHERE node_id IN (`+placeholders(len(args))+`)
	`, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying protection: %w", err)
	}
	defer rows.Close()

	var best *domain.ProtectionEntry
	for rows.Next() {
		var entry domain.ProtectionEntry
		if err := rows.Scan(&entry.ID, &entry.NodeID, &entry.LoginNodeID, &entry.NoAccessNodeID); err != nil {
			return nil, false, fmt.Errorf("scanning protection: %w", err)
		}
		if best == nil || depth[entry.NodeID] > depth[best.NodeID] {
			e := entry
			best = &e
		}
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating protection: %w", err)
	}
	return best, best != nil, nil
}

// Protect adds or replaces the rule for a node.
func (s *protectionService) Protect(ctx context.Context, entry domain.ProtectionEntry) error {
	if s.readOnly {
		return domain.ErrReadOnlyScope
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO public_access (id, node_id, login_node_id, no_access_node_id)
		VALUES (NULLIF(?, 0), ?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET
			login_node_id = excluded.login_node_id,
			no_access_node_id = excluded.no_access_node_id
	`, entry.ID, entry.NodeID, entry.LoginNodeID, entry.NoAccessNodeID)
	if err != nil {
		return fmt.Errorf("saving protection: %w", err)
	}
	return nil
}

// Unprotect removes the rule for a node.
func (s *protectionService) Unprotect(ctx context.Context, nodeID int64) error {
	if s.readOnly {
		return domain.ErrReadOnlyScope
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM public_access WHERE node_id = ?`, nodeID); err != nil {
		return fmt.Errorf("deleting protection: %w", err)
	}
	return nil
}

// ==================== User Store ====================

// UserStore reads and writes back office users.
type UserStore struct {
	q querier
}

var _ driven.UserLookup = (*UserStore)(nil)

// GetUser returns a user by id.
func (s *UserStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := s.q.QueryRowContext(ctx, `SELECT id, name FROM users WHERE id = ?`, id).Scan(&u.ID, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

// SaveUser inserts or updates a user.
func (s *UserStore) SaveUser(ctx context.Context, user domain.User) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO users (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, user.ID, user.Name)
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}
