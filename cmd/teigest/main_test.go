package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/teigest/internal/pipeline"
)

func offlineEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TEIGEST_CONFIG", "")
	t.Setenv("TEIGEST_XMLLINT_PATH", "teigest-no-such-xmllint")
	t.Setenv("TEIGEST_SCHEMA_PATH", filepath.Join(dir, "missing.rng"))
	t.Setenv("TEIGEST_LOG_FORMAT", "text")
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := offlineEnv(t)
	input := filepath.Join(dir, "story.txt")
	if err := os.WriteFile(input, []byte("민수\n\n\"안녕, 지영아.\""), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	out := filepath.Join(dir, "out")

	stdout, stderr, err := execute(t, "run", input, "--output-dir", out)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "태깅된_청자") {
		t.Errorf("expected report table, got %q", stdout)
	}
	if !strings.Contains(stderr, "run_id=") {
		t.Errorf("expected structured log lines, got %q", stderr)
	}
	if _, err := os.Stat(filepath.Join(out, pipeline.FinalOutput)); err != nil {
		t.Errorf("expected final output: %v", err)
	}
}

func TestRunCommandJSON(t *testing.T) {
	dir := offlineEnv(t)
	input := filepath.Join(dir, "story.txt")
	if err := os.WriteFile(input, []byte("민수\n\n\"안녕, 지영아.\""), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	stdout, stderr, err := execute(t, "run", input, "-o", filepath.Join(dir, "out"), "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stderr)
	}
	var run pipeline.Run
	if err := json.Unmarshal([]byte(stdout), &run); err != nil {
		t.Fatalf("expected only a JSON run record on stdout: %v\n%s", err, stdout)
	}
	if run.Status != pipeline.StatusCompleted || run.ID == "" {
		t.Errorf("unexpected run record %+v", run)
	}
	if run.Report == nil || run.Report.Tagged != 1 || run.Report.Personas != 3 {
		t.Errorf("expected report stats in run record, got %+v", run.Report)
	}
}

func TestStageCommandRequiresOneArg(t *testing.T) {
	offlineEnv(t)
	for _, name := range []string{"generate", "addressee", "transform", "report", "run"} {
		_, stderr, err := execute(t, name)
		if err == nil {
			t.Errorf("%s: expected argument error", name)
		}
		if !strings.Contains(stderr, "Usage:") {
			t.Errorf("%s: expected usage on stderr, got %q", name, stderr)
		}
	}
}

func TestConfigCommand(t *testing.T) {
	dir := offlineEnv(t)
	cfgPath := filepath.Join(dir, "teigest.toml")
	if err := os.WriteFile(cfgPath, []byte("publication = \"테스트 출판\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	stdout, _, err := execute(t, "config", "--config", cfgPath, "-o", "/tmp/tei")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"publication", "테스트 출판", "output_dir", "/tmp/tei"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in:\n%s", want, stdout)
		}
	}
}

func TestInvalidConfigFails(t *testing.T) {
	offlineEnv(t)
	t.Setenv("TEIGEST_LOG_LEVEL", "loud")
	if _, _, err := execute(t, "config"); err == nil {
		t.Fatal("expected validation error")
	}
}
