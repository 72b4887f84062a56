package e2e

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"inferd/internal/broker"
	"inferd/internal/httpapi"
	"inferd/pkg/client"
	"inferd/pkg/types"
)

// identity-ish 2-in 3-class model: class 0 wins when x0 dominates, class 1
// when x1 does, class 2 when both are negative.
const testWeights = `{
	"dim": 2, "classes": 3,
	"weights": [[1, 0], [0, 1], [-1, -1]],
	"bias": [0, 0, 0]
}`

func writeFixtures(t *testing.T, elements int) (weightsPath, dataPath string) {
	t.Helper()
	dir := t.TempDir()
	weightsPath = filepath.Join(dir, "clf.weights.json")
	if err := os.WriteFile(weightsPath, []byte(testWeights), 0o644); err != nil {
		t.Fatalf("write weights: %v", err)
	}
	elems := make([]string, elements)
	for i := range elems {
		elems[i] = fmt.Sprintf("element-%04d", i)
	}
	raw, _ := json.Marshal(elems)
	dataPath = filepath.Join(dir, "corpus.json")
	if err := os.WriteFile(dataPath, raw, 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return weightsPath, dataPath
}

// newServer hosts a real broker over httptest and returns a proxy client.
func newServer(t *testing.T, elements int) (*httptest.Server, *client.Client) {
	t.Helper()
	weightsPath, dataPath := writeFixtures(t, elements)

	b := broker.New("clf")
	spec := types.ObjectSpec{Name: "clf", Kind: types.KindModel, WeightsPath: weightsPath}
	if err := b.Register(spec); err != nil {
		t.Fatalf("register model: %v", err)
	}
	if err := b.Register(types.ObjectSpec{Name: "corpus", Kind: types.KindCollection, DataPath: dataPath}); err != nil {
		t.Fatalf("register collection: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(b))
	t.Cleanup(srv.Close)
	return srv, client.New(srv.URL)
}
