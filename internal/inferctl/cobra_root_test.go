package inferctl

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"inferd/internal/broker"
	"inferd/internal/httpapi"
	"inferd/pkg/types"
)

func startDaemon(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	weights := filepath.Join(dir, "m.weights.json")
	body := `{"dim": 2, "classes": 2, "weights": [[1, 0], [0, 1]], "bias": [0, 0]}`
	if err := os.WriteFile(weights, []byte(body), 0o644); err != nil {
		t.Fatalf("write weights: %v", err)
	}
	data := filepath.Join(dir, "data.json")
	if err := os.WriteFile(data, []byte(`["a","b","c"]`), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}

	b := broker.New("clf")
	if err := b.Register(types.ObjectSpec{Name: "clf", Kind: types.KindModel, WeightsPath: weights}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := b.Register(types.ObjectSpec{Name: "corpus", Kind: types.KindCollection, DataPath: data}); err != nil {
		t.Fatalf("register: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(b))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusCommand(t *testing.T) {
	srv := startDaemon(t)
	if err := Execute([]string{"status", "--url", srv.URL}); err != nil {
		t.Fatalf("status: %v", err)
	}
}

func TestObjectsCommand(t *testing.T) {
	srv := startDaemon(t)
	if err := Execute([]string{"objects", "--url", srv.URL}); err != nil {
		t.Fatalf("objects: %v", err)
	}
}

func TestCreateCommand(t *testing.T) {
	srv := startDaemon(t)
	if err := Execute([]string{"create", "clf", "--url", srv.URL}); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestPredictCommand(t *testing.T) {
	srv := startDaemon(t)
	if err := Execute([]string{"predict", "1,0", "--url", srv.URL}); err != nil {
		t.Fatalf("predict: %v", err)
	}
	if err := Execute([]string{"predict", "--object", "clf", "0,1", "--url", srv.URL}); err != nil {
		t.Fatalf("predict named: %v", err)
	}
}

func TestPredictCommandRejectsBadVector(t *testing.T) {
	srv := startDaemon(t)
	if err := Execute([]string{"predict", "one,two", "--url", srv.URL}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCollectionCommands(t *testing.T) {
	srv := startDaemon(t)
	if err := Execute([]string{"collection", "length", "corpus", "--url", srv.URL}); err != nil {
		t.Fatalf("length: %v", err)
	}
	if err := Execute([]string{"collection", "get", "corpus", "1", "--url", srv.URL}); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := Execute([]string{"collection", "get", "corpus", "9", "--url", srv.URL}); err == nil {
		t.Fatal("expected out-of-range error")
	}
	if err := Execute([]string{"collection", "get", "corpus", "x", "--url", srv.URL}); err == nil {
		t.Fatal("expected index parse error")
	}
}

func TestCollectionRequiresSubcommand(t *testing.T) {
	if err := Execute([]string{"collection"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseVector(t *testing.T) {
	cases := []struct {
		in string
		n  int
		ok bool
	}{
		{"1,2,3", 3, true},
		{" 1 , 2 ", 2, true},
		{"1,,3", 2, true},
		{"", 0, false},
		{"a", 0, false},
	}
	for _, c := range cases {
		got, err := parseVector(c.in)
		if c.ok != (err == nil) {
			t.Fatalf("%q: err=%v", c.in, err)
		}
		if c.ok && len(got) != c.n {
			t.Fatalf("%q -> %v", c.in, got)
		}
	}
}

func TestSplitNamePath(t *testing.T) {
	name, path, err := splitNamePath("iris=./iris.weights.json")
	if err != nil || name != "iris" || path != "./iris.weights.json" {
		t.Fatalf("got %q %q %v", name, path, err)
	}
	for _, bad := range []string{"", "noequals", "=path", "name="} {
		if _, _, err := splitNamePath(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}
