package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phoenixcrm/leadview/pkg/model"
	"github.com/phoenixcrm/leadview/pkg/snapshot"
)

const sampleLeads = `[
  {"id":"1","first_name":"Ann","last_name":"Lee","company":"Acme","status":"qualified","priority":"high","value":1200},
  {"id":"2","first_name":"Bob","company":"Globex","value":300},
  {"id":"3","first_name":"Cy","company":"Acme","status":"won","priority":"low","value":5000}
]`

// isolate keeps the developer's config and environment out of run().
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{"LEADVIEW_CONFIG", "BACKEND_URL", "LEADVIEW_TOKEN", "LEADVIEW_TIMEOUT", "LEADVIEW_LOG", "LEADVIEW_SNAPSHOT"} {
		t.Setenv(key, "")
	}
}

func writeLeads(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var stdout, stderr bytes.Buffer
	code := run(ctx, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_VersionAndHelp(t *testing.T) {
	isolate(t)

	code, out, _ := runCLI(t, "--version")
	if code != 0 || !strings.HasPrefix(out, "lv version v") {
		t.Errorf("--version = %d %q", code, out)
	}

	code, out, _ = runCLI(t, "--help")
	if code != 0 || !strings.Contains(out, "robot-leads") {
		t.Errorf("--help = %d %q", code, out)
	}
}

func TestRun_FlagErrors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown sort", []string{"--sort", "age", "--robot-leads"}, "unknown sort key"},
		{"file and offline", []string{"--file", "x.json", "--offline"}, "mutually exclusive"},
		{"watch without file", []string{"--watch"}, "--watch requires --file"},
		{"positional args", []string{"extra"}, "unexpected arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(t, tt.args...)
			if code != 2 {
				t.Errorf("exit code = %d, want 2", code)
			}
			if out != "" {
				t.Errorf("unexpected stdout %q", out)
			}
			if !strings.Contains(errOut, tt.want) {
				t.Errorf("stderr = %q, want %q", errOut, tt.want)
			}
		})
	}
}

func TestRun_RobotLeadsFromFile(t *testing.T) {
	isolate(t)
	path := writeLeads(t, sampleLeads)

	code, out, errOut := runCLI(t, "--file", path, "--robot-leads", "--search", "acme", "--sort", "value")
	if code != 0 {
		t.Fatalf("exit %d, stderr=%s", code, errOut)
	}
	if errOut != "" {
		t.Errorf("expected empty stderr, got %q", errOut)
	}

	var payload struct {
		Query struct {
			Search string `json:"search"`
			SortBy string `json:"sort_by"`
		} `json:"query"`
		Count int          `json:"count"`
		Total int          `json:"total"`
		Leads []model.Lead `json:"leads"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if payload.Count != 2 || payload.Total != 3 {
		t.Errorf("count=%d total=%d", payload.Count, payload.Total)
	}
	if payload.Query.Search != "acme" || payload.Query.SortBy != "value" {
		t.Errorf("query = %+v", payload.Query)
	}
	if len(payload.Leads) != 2 || payload.Leads[0].ID != "3" || payload.Leads[1].ID != "1" {
		t.Errorf("leads = %+v", payload.Leads)
	}
}

func TestRun_RobotStatsFromBackend(t *testing.T) {
	isolate(t)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/leads/" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleLeads))
	}))
	defer srv.Close()

	code, out, errOut := runCLI(t, "--backend", srv.URL, "--token", "tok", "--robot-stats", "--stage", "qualified")
	if code != 0 {
		t.Fatalf("exit %d, stderr=%s", code, errOut)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}

	var payload struct {
		Stats struct {
			Total     int `json:"total"`
			New       int `json:"new"`
			Qualified int `json:"qualified"`
		} `json:"stats"`
		ByStage []struct {
			Stage string `json:"stage"`
			Count int    `json:"count"`
		} `json:"by_stage"`
		Value struct {
			Count int     `json:"count"`
			Sum   float64 `json:"sum"`
		} `json:"value"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	// Status "" is not "new" for the headline counters.
	if payload.Stats.Total != 3 || payload.Stats.New != 0 || payload.Stats.Qualified != 1 {
		t.Errorf("stats = %+v", payload.Stats)
	}
	// Value summary follows the stage filter.
	if payload.Value.Count != 1 || payload.Value.Sum != 1200 {
		t.Errorf("value = %+v", payload.Value)
	}
	if len(payload.ByStage) == 0 {
		t.Errorf("expected by_stage counts")
	}
}

func TestRun_BackendFailure(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	code, out, errOut := runCLI(t, "--backend", srv.URL, "--token", "tok", "--robot-leads")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if out != "" {
		t.Errorf("stdout should be empty on failure, got %q", out)
	}
	if !strings.Contains(errOut, "load leads") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRun_RobotBoard(t *testing.T) {
	isolate(t)
	path := writeLeads(t, sampleLeads)

	code, out, errOut := runCLI(t, "--file", path, "--robot-board", "--search", "nobody")
	if code != 0 {
		t.Fatalf("exit %d, stderr=%s", code, errOut)
	}
	var payload struct {
		Columns []struct {
			Stage string       `json:"stage"`
			Leads []model.Lead `json:"leads"`
		} `json:"columns"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	// Columns are built from the unfiltered collection.
	n := 0
	for _, col := range payload.Columns {
		n += len(col.Leads)
	}
	if n != 3 {
		t.Errorf("board holds %d leads, want 3", n)
	}
}

func TestRun_ExportFunnel(t *testing.T) {
	isolate(t)
	path := writeLeads(t, sampleLeads)
	out := filepath.Join(t.TempDir(), "funnel.svg")

	code, stdout, errOut := runCLI(t, "--file", path, "--export-funnel", out)
	if code != 0 {
		t.Fatalf("exit %d, stderr=%s", code, errOut)
	}
	if !strings.Contains(stdout, "funnel.svg") {
		t.Errorf("stdout = %q", stdout)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<svg") || !strings.Contains(string(data), "won (1)") {
		t.Errorf("unexpected svg:\n%s", data)
	}
}

func TestRun_Offline(t *testing.T) {
	isolate(t)

	code, _, errOut := runCLI(t, "--offline", "--robot-leads")
	if code != 1 || !strings.Contains(errOut, "snapshot_path") {
		t.Errorf("offline without snapshot = %d %q", code, errOut)
	}

	dbPath := filepath.Join(t.TempDir(), "snap.db")
	db, err := snapshot.OpenDB(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Save(context.Background(), []model.Lead{{ID: "s1", FirstName: "Sam"}}, time.Now()); err != nil {
		t.Fatal(err)
	}
	db.Close()
	t.Setenv("LEADVIEW_SNAPSHOT", dbPath)

	code, out, errOut := runCLI(t, "--offline", "--robot-leads")
	if code != 0 {
		t.Fatalf("exit %d, stderr=%s", code, errOut)
	}
	if !strings.Contains(out, `"s1"`) {
		t.Errorf("stdout = %s", out)
	}
}

func TestRun_TUIRequiresTerminal(t *testing.T) {
	isolate(t)
	if isTerminal() {
		t.Skip("test process is attached to a terminal")
	}
	path := writeLeads(t, sampleLeads)

	code, _, errOut := runCLI(t, "--file", path)
	if code != 1 || !strings.Contains(errOut, "not a terminal") {
		t.Errorf("run = %d %q", code, errOut)
	}
}

func TestStartSnapshotWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.db")
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	hook, err := startSnapshotWriter(g, gctx, path, zap.NewNop())
	if err != nil {
		t.Fatalf("startSnapshotWriter: %v", err)
	}
	hook([]model.Lead{{ID: "old"}})
	hook([]model.Lead{{ID: "a"}, {ID: "b"}})

	reader, err := snapshot.OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		leads, err := reader.Load(context.Background())
		if err == nil && len(leads) == 2 && leads[1].ID == "b" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("newest collection never saved: %+v, %v", leads, err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := g.Wait(); err != nil {
		t.Errorf("writer returned %v", err)
	}
}
