package workspace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/HerbHall/startpage/internal/event"
	"github.com/HerbHall/startpage/internal/testutil"
	"github.com/HerbHall/startpage/pkg/plugin"
	"github.com/HerbHall/startpage/pkg/plugin/plugintest"
)

func TestPluginContract(t *testing.T) {
	plugintest.TestPluginContract(t,
		func() plugin.Plugin { return New() },
		func(t *testing.T, name string) plugin.Dependencies { return testutil.NewDeps(t, name, nil) },
	)
}

func newTestModule(t *testing.T) (*Module, *event.Bus) {
	t.Helper()
	deps := testutil.NewDeps(t, "workspaces", nil)
	m := New()
	if err := m.Init(context.Background(), deps); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return m, deps.Bus.(*event.Bus)
}

func names(list []Workspace) string {
	var out []string
	for _, w := range list {
		out = append(out, w.Name)
	}
	return strings.Join(out, ",")
}

func TestStore_CreateListGet(t *testing.T) {
	m, _ := newTestModule(t)
	ctx := context.Background()

	work, err := m.store.Create(ctx, "  My Work  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if work.Name != "My Work" || work.Slug != "my-work" || work.Path != "/my-work" || work.Position != 0 {
		t.Errorf("Create = %+v", work)
	}
	m.store.Create(ctx, "Side Project")

	list, err := m.store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if names(list) != "My Work,Side Project" {
		t.Errorf("List = %s", names(list))
	}

	got, err := m.store.Get(ctx, work.ID)
	if err != nil || got.Name != "My Work" {
		t.Errorf("Get = %+v, %v", got, err)
	}
	if _, err := m.store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v", err)
	}
}

func TestStore_CreateRejectsBlankName(t *testing.T) {
	m, _ := newTestModule(t)
	if _, err := m.store.Create(context.Background(), "   "); !errors.Is(err, ErrInvalidName) {
		t.Errorf("error = %v, want ErrInvalidName", err)
	}
}

func TestStore_RevisionAndEvents(t *testing.T) {
	m, bus := newTestModule(t)
	ctx := context.Background()

	var topics []string
	var lastRevision uint64
	bus.SubscribeAll(func(_ context.Context, e plugin.Event) {
		topics = append(topics, e.Topic)
		if ce, ok := e.Payload.(*ChangedEvent); ok {
			lastRevision = ce.Workspaces.Revision
		}
	})

	before, _ := m.store.Snapshot(ctx)
	a, _ := m.store.Create(ctx, "A")
	b, _ := m.store.Create(ctx, "B")
	m.store.Rename(ctx, a.ID, "Alpha")
	m.store.Reorder(ctx, []string{b.ID, a.ID})
	m.store.Delete(ctx, b.ID)

	want := []string{
		TopicChanged, TopicCreated,
		TopicChanged, TopicCreated,
		TopicChanged, TopicUpdated,
		TopicChanged,
		TopicChanged, TopicDeleted,
	}
	if strings.Join(topics, " ") != strings.Join(want, " ") {
		t.Errorf("topics = %v\nwant     %v", topics, want)
	}

	after, _ := m.store.Snapshot(ctx)
	if after.Revision != before.Revision+5 || lastRevision != after.Revision {
		t.Errorf("revision before=%d after=%d last event=%d", before.Revision, after.Revision, lastRevision)
	}
	if len(after.Items) != 1 || after.Items[0].Name != "Alpha" {
		t.Errorf("snapshot = %+v", after.Items)
	}
}

func TestStore_DeleteCompactsPositions(t *testing.T) {
	m, _ := newTestModule(t)
	ctx := context.Background()
	a, _ := m.store.Create(ctx, "A")
	m.store.Create(ctx, "B")
	m.store.Create(ctx, "C")

	if err := m.store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ := m.store.List(ctx)
	for i, w := range list {
		if w.Position != i {
			t.Errorf("%s position = %d, want %d", w.Name, w.Position, i)
		}
	}
	if err := m.store.Delete(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v", err)
	}
}

func TestStore_Reorder(t *testing.T) {
	m, _ := newTestModule(t)
	ctx := context.Background()
	a, _ := m.store.Create(ctx, "A")
	b, _ := m.store.Create(ctx, "B")
	c, _ := m.store.Create(ctx, "C")

	list, err := m.store.Reorder(ctx, []string{c.ID, a.ID, b.ID})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if names(list) != "C,A,B" {
		t.Errorf("order = %s", names(list))
	}

	for _, ids := range [][]string{
		{a.ID, b.ID},
		{a.ID, b.ID, b.ID},
		{a.ID, b.ID, "other"},
	} {
		if _, err := m.store.Reorder(ctx, ids); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("Reorder(%v) error = %v", ids, err)
		}
	}
}

func TestStore_RenameMissing(t *testing.T) {
	m, _ := newTestModule(t)
	if _, err := m.store.Rename(context.Background(), "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v", err)
	}
}

func TestHandlers(t *testing.T) {
	m, _ := newTestModule(t)
	mux := http.NewServeMux()
	for _, r := range m.Routes() {
		mux.HandleFunc(r.Method+" /api/v1/workspaces"+r.Path, r.Handler)
	}
	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
		return w
	}

	if w := do("POST", "/api/v1/workspaces", `{"name":"Work"}`); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	if w := do("POST", "/api/v1/workspaces", `{"name":""}`); w.Code != http.StatusBadRequest {
		t.Errorf("blank create status = %d", w.Code)
	}
	list, _ := m.store.List(context.Background())
	id := list[0].ID

	if w := do("PUT", "/api/v1/workspaces/"+id, `{"name":"Deep Work"}`); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"slug":"deep-work"`) {
		t.Errorf("rename = %d %s", w.Code, w.Body)
	}
	if w := do("PUT", "/api/v1/workspaces/order", `{"ids":["`+id+`"]}`); w.Code != http.StatusOK {
		t.Errorf("reorder status = %d", w.Code)
	}
	if w := do("PUT", "/api/v1/workspaces/order", `{"ids":[]}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad reorder status = %d", w.Code)
	}
	if w := do("DELETE", "/api/v1/workspaces/"+id, ""); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
	if w := do("GET", "/api/v1/workspaces/"+id, ""); w.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d", w.Code)
	}
	if w := do("GET", "/api/v1/workspaces", ""); w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("list = %d %s", w.Code, w.Body)
	}
}
