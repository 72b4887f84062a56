package e2e

import (
	"context"
	"os"
	"strings"
	"testing"

	"inferd/pkg/client"
	"inferd/pkg/manager"
	"inferd/pkg/types"
)

// TestSpawnMode_Lifecycle drives a real daemon process end to end: register,
// start, proxy calls, stop. Skips unless INFERD_BIN points to a built inferd
// binary (e.g. INFERD_BIN=$(pwd)/inferd after `go build ./cmd/inferd`).
func TestSpawnMode_Lifecycle(t *testing.T) {
	bin := strings.TrimSpace(os.Getenv("INFERD_BIN"))
	if bin == "" {
		t.Skip("INFERD_BIN not set; skipping spawn-mode lifecycle test")
	}

	weightsPath, dataPath := writeFixtures(t, 20)

	mgr := manager.New(manager.Config{BinPath: bin, DefaultObject: "clf"})
	if err := mgr.Register(types.ObjectSpec{Name: "clf", Kind: types.KindModel, WeightsPath: weightsPath}); err != nil {
		t.Fatalf("register model: %v", err)
	}
	if err := mgr.Register(types.ObjectSpec{Name: "corpus", Kind: types.KindCollection, DataPath: dataPath}); err != nil {
		t.Fatalf("register collection: %v", err)
	}

	ctx := context.Background()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		if err := mgr.Stop(); err != nil {
			t.Errorf("stop: %v", err)
		}
	}()

	mdl, err := mgr.CreateModel(ctx, "clf")
	if err != nil {
		t.Fatalf("create model: %v", err)
	}
	resp, err := mdl.Predict(ctx, []float64{0, 4})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if resp.ArgMax != 1 {
		t.Fatalf("argmax=%d dist=%v", resp.ArgMax, resp.Distribution)
	}

	col, err := mgr.CreateCollection(ctx, "corpus")
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	n, err := col.Length(ctx)
	if err != nil || n != 20 {
		t.Fatalf("length=%d err=%v", n, err)
	}
	all, err := client.FetchAll(ctx, col, 4)
	if err != nil || len(all) != 20 {
		t.Fatalf("fetch all: len=%d err=%v", len(all), err)
	}

	// Stop, then verify proxies are dead, not returning stale data.
	if err := mgr.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := mdl.Predict(ctx, []float64{1, 0}); !client.IsConnectionLost(err) {
		t.Fatalf("want connection lost after stop, got %v", err)
	}
}
