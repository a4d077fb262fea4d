package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

type hookEvent struct {
	kind string
	id   int64
	tags []string
}

type recordingHooks struct {
	mu     sync.Mutex
	events []hookEvent
}

func (h *recordingHooks) StyleSaved(_ context.Context, s style.Style) {
	h.record(hookEvent{kind: "saved", id: s.ID(), tags: s.Tags()})
}

func (h *recordingHooks) TagsChanged(_ context.Context, s style.Style) {
	h.record(hookEvent{kind: "tags", id: s.ID(), tags: s.Tags()})
}

func (h *recordingHooks) StyleDeleted(_ context.Context, id int64) {
	h.record(hookEvent{kind: "deleted", id: id})
}

func (h *recordingHooks) record(e hookEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) last(t *testing.T) hookEvent {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		t.Fatal("no hook fired")
	}
	return h.events[len(h.events)-1]
}

func setupStore(t *testing.T) (*Store, *recordingHooks) {
	t.Helper()
	hooks := &recordingHooks{}
	s, err := Open(Config{Driver: DriverModernc, Path: filepath.Join(t.TempDir(), "catalog.db")}, WithHooks(hooks))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, hooks
}

func mustStyle(t *testing.T, a style.Attributes) style.Style {
	t.Helper()
	st, err := style.New(a)
	if err != nil {
		t.Fatalf("new style: %v", err)
	}
	return st
}

func createStyle(t *testing.T, s *Store, a style.Attributes) style.Style {
	t.Helper()
	saved, err := s.Create(context.Background(), mustStyle(t, a))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return saved
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(Config{Path: ""}); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := Open(Config{Driver: "postgres", Path: filepath.Join(t.TempDir(), "x.db")}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")
	s, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	createStyle(t, s, style.Attributes{Title: "Bob", StylistName: "Ana"})
	_ = s.Close()

	s, err = Open(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	n, err := s.Count(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("count = %d, err = %v", n, err)
	}
}

func TestCreate_AndGet(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hooks := &recordingHooks{}
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "c.db")}, WithHooks(hooks), WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	saved := createStyle(t, s, style.Attributes{
		Title:            "Curly Shag",
		Description:      "Layered curls",
		Length:           style.LengthMedium,
		Texture:          style.TextureCurly,
		StylistName:      "Ana",
		Tags:             []string{"volume", "boho"},
		ClientPermission: true,
	})
	if saved.ID() == 0 {
		t.Fatal("expected assigned id")
	}
	if !saved.CreatedAt().Equal(fixed) {
		t.Errorf("created_at = %v", saved.CreatedAt())
	}

	got, err := s.Get(context.Background(), saved.ID())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title() != "Curly Shag" || got.Texture() != style.TextureCurly || got.Thickness() != style.ThicknessFine {
		t.Errorf("got = %+v", got.Attributes())
	}
	if !got.ClientPermission() {
		t.Error("client permission lost")
	}
	if !slices.Equal(got.Tags(), []string{"boho", "volume"}) {
		t.Errorf("tags = %v", got.Tags())
	}

	ev := hooks.last(t)
	if ev.kind != "saved" || ev.id != saved.ID() || len(ev.tags) != 2 {
		t.Errorf("hook = %+v", ev)
	}
}

func TestGet_NotFound(t *testing.T) {
	s, _ := setupStore(t)
	_, err := s.Get(context.Background(), 404)
	if !errors.Is(err, domain.ErrStyleNotFound) {
		t.Fatalf("expected ErrStyleNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	s, hooks := setupStore(t)
	orig := createStyle(t, s, style.Attributes{Title: "Bob", StylistName: "Ana", Tags: []string{"old"}})

	updated, err := s.Update(context.Background(), orig.ID(), mustStyle(t, style.Attributes{
		Title: "Long Bob", StylistName: "Ana", Length: style.LengthLong, Tags: []string{"new"},
	}))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title() != "Long Bob" || updated.Length() != style.LengthLong {
		t.Errorf("updated = %+v", updated.Attributes())
	}
	if !slices.Equal(updated.Tags(), []string{"new"}) {
		t.Errorf("tags = %v", updated.Tags())
	}
	if ev := hooks.last(t); ev.kind != "saved" || ev.id != orig.ID() {
		t.Errorf("hook = %+v", ev)
	}

	_, err = s.Update(context.Background(), 999, mustStyle(t, style.Attributes{Title: "X", StylistName: "Y"}))
	if !errors.Is(err, domain.ErrStyleNotFound) {
		t.Fatalf("expected ErrStyleNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s, hooks := setupStore(t)
	st := createStyle(t, s, style.Attributes{Title: "Bob", StylistName: "Ana", Tags: []string{"x"}})

	if err := s.Delete(context.Background(), st.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ev := hooks.last(t); ev.kind != "deleted" || ev.id != st.ID() {
		t.Errorf("hook = %+v", ev)
	}
	if _, err := s.Get(context.Background(), st.ID()); !errors.Is(err, domain.ErrStyleNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}

	var orphanTags int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM style_tags`).Scan(&orphanTags); err != nil {
		t.Fatalf("count tags: %v", err)
	}
	if orphanTags != 0 {
		t.Errorf("tags not cascaded: %d left", orphanTags)
	}

	if err := s.Delete(context.Background(), st.ID()); !errors.Is(err, domain.ErrStyleNotFound) {
		t.Errorf("expected ErrStyleNotFound, got %v", err)
	}
}

func TestTagOperations(t *testing.T) {
	s, hooks := setupStore(t)
	ctx := context.Background()
	st := createStyle(t, s, style.Attributes{Title: "Bob", StylistName: "Ana"})

	got, err := s.AddTags(ctx, st.ID(), []string{"summer", "easy", "summer"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !slices.Equal(got.Tags(), []string{"easy", "summer"}) {
		t.Errorf("after add = %v", got.Tags())
	}
	if ev := hooks.last(t); ev.kind != "tags" {
		t.Errorf("hook = %+v", ev)
	}

	got, err = s.RemoveTags(ctx, st.ID(), []string{"easy"})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !slices.Equal(got.Tags(), []string{"summer"}) {
		t.Errorf("after remove = %v", got.Tags())
	}

	got, err = s.SetTags(ctx, st.ID(), []string{"bold", "edgy"})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !slices.Equal(got.Tags(), []string{"bold", "edgy"}) {
		t.Errorf("after set = %v", got.Tags())
	}

	before := len(hooks.events)
	got, err = s.ClearTags(ctx, st.ID())
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(got.Tags()) != 0 {
		t.Errorf("after clear = %v", got.Tags())
	}

	// A no-op change still notifies.
	if _, err := s.ClearTags(ctx, st.ID()); err != nil {
		t.Fatalf("clear again: %v", err)
	}
	if len(hooks.events) != before+2 {
		t.Errorf("expected 2 more hook events, got %d", len(hooks.events)-before)
	}

	if _, err := s.AddTags(ctx, 999, []string{"x"}); !errors.Is(err, domain.ErrStyleNotFound) {
		t.Errorf("expected ErrStyleNotFound, got %v", err)
	}
	if _, err := s.AddTags(ctx, st.ID(), []string{" "}); !errors.Is(err, domain.ErrInvalidStyle) {
		t.Errorf("expected ErrInvalidStyle, got %v", err)
	}
}

func TestList_AndCount(t *testing.T) {
	s, _ := setupStore(t)
	for _, title := range []string{"A", "B", "C"} {
		createStyle(t, s, style.Attributes{Title: title, StylistName: "Ana"})
	}

	all, err := s.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].Title() != "A" || all[2].Title() != "C" {
		t.Fatalf("list = %v", all)
	}

	page, err := s.List(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].Title() != "B" {
		t.Errorf("page = %v", page)
	}

	n, err := s.Count(context.Background())
	if err != nil || n != 3 {
		t.Errorf("count = %d, err = %v", n, err)
	}
}

func TestFindByIDs(t *testing.T) {
	s, _ := setupStore(t)
	a := createStyle(t, s, style.Attributes{Title: "A", StylistName: "Ana", Tags: []string{"t"}})
	b := createStyle(t, s, style.Attributes{Title: "B", StylistName: "Ana"})

	found, err := s.FindByIDs(context.Background(), []int64{b.ID(), 999, a.ID()})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("found = %d, want 2", len(found))
	}
	if found[a.ID()].Title() != "A" || !slices.Equal(found[a.ID()].Tags(), []string{"t"}) {
		t.Errorf("a = %+v", found[a.ID()].Attributes())
	}

	empty, err := s.FindByIDs(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty = %v, err = %v", empty, err)
	}
}

func TestSearchText(t *testing.T) {
	s, _ := setupStore(t)
	curly := createStyle(t, s, style.Attributes{
		Title: "Curly Bob", StylistName: "Ana", Texture: style.TextureCurly, Length: style.LengthShort,
	})
	byTag := createStyle(t, s, style.Attributes{
		Title: "Shag", StylistName: "Bo", Tags: []string{"curly-friendly"}, Length: style.LengthMedium,
	})
	byStylist := createStyle(t, s, style.Attributes{Title: "Pixie", StylistName: "Curly Sue"})
	createStyle(t, s, style.Attributes{Title: "Straight Lob", StylistName: "Cy", Description: "sleek"})
	createStyle(t, s, style.Attributes{Title: "100% volume", StylistName: "Di"})

	got, err := s.SearchText(context.Background(), "CURLY", filter.Expression{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	ids := make([]int64, len(got))
	for i, st := range got {
		ids[i] = st.ID()
	}
	if !slices.Equal(ids, []int64{curly.ID(), byTag.ID(), byStylist.ID()}) {
		t.Errorf("ids = %v", ids)
	}

	f, _ := filter.FromMap(map[string]string{"length": "MEDIUM"})
	got, err = s.SearchText(context.Background(), "curly", f)
	if err != nil {
		t.Fatalf("search filtered: %v", err)
	}
	if len(got) != 1 || got[0].ID() != byTag.ID() {
		t.Errorf("filtered = %v", got)
	}

	got, err = s.SearchText(context.Background(), "%", filter.Expression{})
	if err != nil {
		t.Fatalf("search literal: %v", err)
	}
	if len(got) != 1 || got[0].Title() != "100% volume" {
		t.Errorf("literal percent = %v", got)
	}

	got, err = s.SearchText(context.Background(), "mohawk", filter.Expression{})
	if err != nil || len(got) != 0 {
		t.Errorf("no match = %v, err = %v", got, err)
	}
}

func TestSearchText_RejectsUnknownFilter(t *testing.T) {
	s, _ := setupStore(t)
	f, _ := filter.FromMap(map[string]string{"title; DROP TABLE styles": "x"})
	if _, err := s.SearchText(context.Background(), "bob", f); err == nil {
		t.Fatal("expected error")
	}
}

func TestPing(t *testing.T) {
	s, _ := setupStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestSearchText_UnicodeCase(t *testing.T) {
	s, _ := setupStore(t)
	bob := createStyle(t, s, style.Attributes{
		Title: "Ébouriffé Bob", StylistName: "Zoë", Tags: []string{"Élégant"},
	})
	createStyle(t, s, style.Attributes{Title: "Pixie", StylistName: "Ana"})

	for _, q := range []string{"Ébouriffé Bob", "ébouriffé", "ÉBOURIFFÉ", "ZOË", "élégant"} {
		got, err := s.SearchText(context.Background(), q, filter.Expression{})
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if len(got) != 1 || got[0].ID() != bob.ID() {
			t.Errorf("search %q = %v, want style %d", q, got, bob.ID())
		}
	}
}

func TestList_BeyondParameterLimit(t *testing.T) {
	s, _ := setupStore(t)
	const n = 33000

	ctx := context.Background()
	ts := s.timestamp()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for i := range n {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO styles (title, stylist_name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
				fmt.Sprintf("Curly %d", i), "Ana", ts, ts); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO style_tags (style_id, name) VALUES (?, ?)`, n, "last")
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	all, err := s.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != n {
		t.Fatalf("len = %d, want %d", len(all), n)
	}
	if tags := all[n-1].Tags(); !slices.Equal(tags, []string{"last"}) {
		t.Errorf("tags of last style = %v", tags)
	}

	found, err := s.SearchText(ctx, "curly", filter.Expression{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != n {
		t.Errorf("search len = %d, want %d", len(found), n)
	}
}
