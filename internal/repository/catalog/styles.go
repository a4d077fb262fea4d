package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

const styleColumns = `s.id, s.title, s.description, s.length, s.texture, s.thickness, s.maintenance,
	s.stylist_name, s.client_permission, s.created_at, s.updated_at`

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Create inserts a new style with its tags and notifies StyleSaved.
func (s *Store) Create(ctx context.Context, st style.Style) (style.Style, error) {
	now := s.timestamp()
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO styles (title, description, length, texture, thickness, maintenance,
				stylist_name, client_permission, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			st.Title(), st.Description(), string(st.Length()), string(st.Texture()),
			string(st.Thickness()), string(st.Maintenance()), st.StylistName(),
			st.ClientPermission(), now, now,
		)
		if err != nil {
			return fmt.Errorf("insert style: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return insertTags(ctx, tx, id, st.Tags())
	})
	if err != nil {
		return style.Style{}, err
	}

	saved, err := s.Get(ctx, id)
	if err != nil {
		return style.Style{}, err
	}
	s.hooks.StyleSaved(ctx, saved)
	return saved, nil
}

// Get returns a style with its tags.
func (s *Store) Get(ctx context.Context, id int64) (style.Style, error) {
	return getStyle(ctx, s.db, id)
}

// Update replaces every attribute of the style, tags included, and notifies StyleSaved.
func (s *Store) Update(ctx context.Context, id int64, st style.Style) (style.Style, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE styles SET title = ?, description = ?, length = ?, texture = ?, thickness = ?,
				maintenance = ?, stylist_name = ?, client_permission = ?, updated_at = ?
			WHERE id = ?`,
			st.Title(), st.Description(), string(st.Length()), string(st.Texture()),
			string(st.Thickness()), string(st.Maintenance()), st.StylistName(),
			st.ClientPermission(), s.timestamp(), id,
		)
		if err != nil {
			return fmt.Errorf("update style %d: %w", id, err)
		}
		if err := requireAffected(res, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM style_tags WHERE style_id = ?`, id); err != nil {
			return fmt.Errorf("clear tags %d: %w", id, err)
		}
		return insertTags(ctx, tx, id, st.Tags())
	})
	if err != nil {
		return style.Style{}, err
	}

	saved, err := s.Get(ctx, id)
	if err != nil {
		return style.Style{}, err
	}
	s.hooks.StyleSaved(ctx, saved)
	return saved, nil
}

// Delete removes a style (tags cascade) and notifies StyleDeleted.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM styles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete style %d: %w", id, err)
	}
	if err := requireAffected(res, id); err != nil {
		return err
	}
	s.hooks.StyleDeleted(ctx, id)
	return nil
}

// List returns styles in ascending ID order. limit <= 0 returns all of them.
func (s *Store) List(ctx context.Context, offset, limit int) ([]style.Style, error) {
	q := `SELECT ` + styleColumns + ` FROM styles s ORDER BY s.id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, limit, max(offset, 0))
	}
	return queryStyles(ctx, s.db, q, args...)
}

// Count returns the number of styles.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM styles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count styles: %w", err)
	}
	return n, nil
}

// FindByIDs returns the styles that still exist, keyed by ID. Unknown IDs are absent from the map.
func (s *Store) FindByIDs(ctx context.Context, ids []int64) (map[int64]style.Style, error) {
	out := make(map[int64]style.Style, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := `SELECT ` + styleColumns + ` FROM styles s WHERE s.id IN (` + placeholders(len(ids)) + `) ORDER BY s.id`
	styles, err := queryStyles(ctx, s.db, q, args...)
	if err != nil {
		return nil, err
	}
	for _, st := range styles {
		out[st.ID()] = st
	}
	return out, nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func getStyle(ctx context.Context, q querier, id int64) (style.Style, error) {
	styles, err := queryStyles(ctx, q, `SELECT `+styleColumns+` FROM styles s WHERE s.id = ?`, id)
	if err != nil {
		return style.Style{}, err
	}
	if len(styles) == 0 {
		return style.Style{}, fmt.Errorf("style %d: %w", id, domain.ErrStyleNotFound)
	}
	return styles[0], nil
}

// queryStyles runs a styles query and hydrates tags in a second query.
func queryStyles(ctx context.Context, q querier, query string, args ...any) ([]style.Style, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query styles: %w", err)
	}
	defer rows.Close()

	type row struct {
		id        int64
		attrs     style.Attributes
		createdAt time.Time
		updatedAt time.Time
	}
	var scanned []row
	for rows.Next() {
		var r row
		var length, texture, thickness, maint, created, updated string
		var permission bool
		if err := rows.Scan(&r.id, &r.attrs.Title, &r.attrs.Description, &length, &texture, &thickness,
			&maint, &r.attrs.StylistName, &permission, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan style: %w", err)
		}
		r.attrs.Length = style.Length(length)
		r.attrs.Texture = style.Texture(texture)
		r.attrs.Thickness = style.Thickness(thickness)
		r.attrs.Maintenance = style.Maintenance(maint)
		r.attrs.ClientPermission = permission
		r.createdAt = parseTime(created)
		r.updatedAt = parseTime(updated)
		scanned = append(scanned, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate styles: %w", err)
	}
	if len(scanned) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(scanned))
	for i, r := range scanned {
		ids[i] = r.id
	}
	tags, err := loadTags(ctx, q, ids)
	if err != nil {
		return nil, err
	}

	out := make([]style.Style, len(scanned))
	for i, r := range scanned {
		r.attrs.Tags = tags[r.id]
		out[i] = style.Reconstruct(r.id, r.attrs, r.createdAt, r.updatedAt)
	}
	return out, nil
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("style %d: %w", id, domain.ErrStyleNotFound)
	}
	return nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
