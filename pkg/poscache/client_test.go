package poscache_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stonebell/issuegraph/pkg/cacheserver"
	"github.com/stonebell/issuegraph/pkg/model"
	"github.com/stonebell/issuegraph/pkg/poscache"
)

// newClient wires the client against a real cache server instance.
func newClient(t *testing.T) *poscache.Client {
	t.Helper()
	store, err := cacheserver.OpenStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(cacheserver.New(store, cacheserver.Options{}).Handler())
	t.Cleanup(srv.Close)

	return poscache.NewClient(srv.URL, nil, nil)
}

func TestGetCacheMissIsNotAnError(t *testing.T) {
	client := newClient(t)

	data, err := client.Get(context.Background(), "P_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if data.HasItems() {
		t.Errorf("cache miss reported items: %s", data.Items)
	}
	if data.NodePositions == nil || len(data.NodePositions) != 0 {
		t.Errorf("NodePositions = %v, want empty map", data.NodePositions)
	}
}

func TestItemsRoundTrip(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()

	blob := json.RawMessage(`[{"id": "PVTI_1"}]`)
	if err := client.PutItems(ctx, "P_1", blob); err != nil {
		t.Fatalf("PutItems: %v", err)
	}

	data, err := client.Get(ctx, "P_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !data.HasItems() {
		t.Fatalf("items missing after put")
	}

	// A cached empty list is distinguishable from a miss.
	if err := client.PutItems(ctx, "P_2", json.RawMessage(`[]`)); err != nil {
		t.Fatalf("PutItems: %v", err)
	}
	data, err = client.Get(ctx, "P_2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !data.HasItems() {
		t.Errorf("cached empty list reported as miss")
	}

	if err := client.DeleteItems(ctx, "P_1"); err != nil {
		t.Fatalf("DeleteItems: %v", err)
	}
	data, _ = client.Get(ctx, "P_1")
	if data.HasItems() {
		t.Errorf("items survived delete")
	}
}

func TestPositionsRoundTrip(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()

	positions := map[string]model.NodePosition{
		"o/r#1": {X: 50, Y: 60},
		"o/r#2": {X: -10, Y: 0},
	}
	if err := client.PutPositions(ctx, "P_1", positions); err != nil {
		t.Fatalf("PutPositions: %v", err)
	}

	saved := client.SavedPositions(ctx, "P_1")
	if len(saved) != 2 {
		t.Fatalf("SavedPositions = %v", saved)
	}
	if saved["o/r#1"] != (model.NodePosition{X: 50, Y: 60}) {
		t.Errorf("o/r#1 = %v", saved["o/r#1"])
	}
}

func TestBestEffortWrappersSwallowFailures(t *testing.T) {
	// Point at a server that is not there.
	client := poscache.NewClient("http://127.0.0.1:1", nil, nil)
	ctx := context.Background()

	if items := client.SavedItems(ctx, "P_1"); items != nil {
		t.Errorf("SavedItems = %s, want nil", items)
	}
	if positions := client.SavedPositions(ctx, "P_1"); positions != nil {
		t.Errorf("SavedPositions = %v, want nil", positions)
	}

	// Writes must not panic or surface errors.
	client.SaveItems(ctx, "P_1", json.RawMessage(`[]`))
	client.SavePositions(ctx, "P_1", map[string]model.NodePosition{"n": {X: 1}})
	client.Invalidate(ctx, "P_1")
}

func TestSavedPositionsEmptyIsMiss(t *testing.T) {
	client := newClient(t)
	if positions := client.SavedPositions(context.Background(), "P_none"); positions != nil {
		t.Errorf("SavedPositions = %v, want nil for empty map", positions)
	}
}
