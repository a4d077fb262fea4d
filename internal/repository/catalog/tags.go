package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

// AddTags attaches tags to a style and notifies TagsChanged.
func (s *Store) AddTags(ctx context.Context, id int64, tags []string) (style.Style, error) {
	return s.changeTags(ctx, id, tags, func(tx *sql.Tx, names []string) error {
		return insertTags(ctx, tx, id, names)
	})
}

// RemoveTags detaches tags from a style and notifies TagsChanged.
func (s *Store) RemoveTags(ctx context.Context, id int64, tags []string) (style.Style, error) {
	return s.changeTags(ctx, id, tags, func(tx *sql.Tx, names []string) error {
		for _, n := range names {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM style_tags WHERE style_id = ? AND name = ?`, id, n); err != nil {
				return fmt.Errorf("remove tag %q: %w", n, err)
			}
		}
		return nil
	})
}

// SetTags replaces the tag set of a style and notifies TagsChanged.
func (s *Store) SetTags(ctx context.Context, id int64, tags []string) (style.Style, error) {
	return s.changeTags(ctx, id, tags, func(tx *sql.Tx, names []string) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM style_tags WHERE style_id = ?`, id); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
		return insertTags(ctx, tx, id, names)
	})
}

// ClearTags removes every tag from a style and notifies TagsChanged.
func (s *Store) ClearTags(ctx context.Context, id int64) (style.Style, error) {
	return s.changeTags(ctx, id, nil, func(tx *sql.Tx, _ []string) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM style_tags WHERE style_id = ?`, id); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
		return nil
	})
}

// changeTags runs a tag mutation for an existing style and fires TagsChanged even when the set is unchanged.
func (s *Store) changeTags(
	ctx context.Context, id int64, tags []string, mutate func(tx *sql.Tx, names []string) error,
) (style.Style, error) {
	names, err := style.NormalizeTags(tags)
	if err != nil {
		return style.Style{}, err
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE styles SET updated_at = ? WHERE id = ?`, s.timestamp(), id)
		if err != nil {
			return fmt.Errorf("touch style %d: %w", id, err)
		}
		if err := requireAffected(res, id); err != nil {
			return err
		}
		return mutate(tx, names)
	})
	if err != nil {
		return style.Style{}, err
	}

	saved, err := s.Get(ctx, id)
	if err != nil {
		return style.Style{}, err
	}
	s.hooks.TagsChanged(ctx, saved)
	return saved, nil
}

func insertTags(ctx context.Context, tx *sql.Tx, id int64, names []string) error {
	for _, n := range names {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO style_tags (style_id, name) VALUES (?, ?)`, id, n); err != nil {
			return fmt.Errorf("insert tag %q: %w", n, err)
		}
	}
	return nil
}

// tagBatch bounds the IN list of one tag query below SQLite's host parameter limit.
const tagBatch = 500

func loadTags(ctx context.Context, q querier, ids []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(ids))
	for batch := range slices.Chunk(ids, tagBatch) {
		if err := loadTagBatch(ctx, q, batch, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func loadTagBatch(ctx context.Context, q querier, ids []int64, out map[int64][]string) error {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx,
		`SELECT style_id, name FROM style_tags WHERE style_id IN (`+placeholders(len(ids))+`) ORDER BY style_id, name`,
		args...)
	if err != nil {
		return fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		out[id] = append(out[id], name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate tags: %w", err)
	}
	return nil
}
