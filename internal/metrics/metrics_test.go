package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteFile(t *testing.T) {
	m := New()
	m.ObserveStep("fetch", "skipped", 0)
	m.ObserveStep("render", "ok", 2*time.Second)
	m.ObserveStep("partition", "failed", time.Second)
	m.SetChunks(3)
	m.IncVariant("modern_menu", "pdf")

	path := filepath.Join(t.TempDir(), "textfile", "bookpipe.prom")
	if err := m.WriteFile(path); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`bookpipe_step_total{status="skipped",step="fetch"} 1`,
		`bookpipe_step_total{status="failed",step="partition"} 1`,
		`bookpipe_step_duration_seconds_count{step="render"} 1`,
		`bookpipe_chunks 3`,
		`bookpipe_resolve_variant_total{format="pdf",variant="modern_menu"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, `bookpipe_step_duration_seconds_count{step="fetch"}`) {
		t.Errorf("skipped steps should not record a duration")
	}
}

func TestWriteFileEmptyPath(t *testing.T) {
	if err := New().WriteFile(""); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestRunsDoNotShareState(t *testing.T) {
	a, b := New(), New()
	a.SetChunks(5)
	path := filepath.Join(t.TempDir(), "b.prom")
	if err := b.WriteFile(path); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "bookpipe_chunks 0") {
		t.Fatalf("second run saw first run's gauge:\n%s", data)
	}
}
