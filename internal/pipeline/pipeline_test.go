package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/teigest/internal/config"
	"github.com/dgallion1/teigest/internal/doctree"
	"github.com/dgallion1/teigest/internal/fileutil"
	"github.com/dgallion1/teigest/internal/teixml"
)

const twoParagraphs = "민수\n\n\"안녕, 지영아.\""

func testPipeline(t *testing.T) (*Pipeline, string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.SchemaPath = filepath.Join(dir, "missing.rng")
	cfg.XMLLintPath = "teigest-no-such-xmllint"
	var stdout bytes.Buffer
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, log, &stdout), dir, &stdout
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func readTree(t *testing.T, path string) *doctree.Tree {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	tree, err := teixml.Unmarshal(data)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return tree
}

func TestRunAll_TwoParagraphDialogue(t *testing.T) {
	p, dir, stdout := testPipeline(t)
	input := writeInput(t, dir, "story.txt", twoParagraphs)

	run, err := p.RunAll(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", run.Status)
	}
	if run.ContentHash != ContentHashHex([]byte(twoParagraphs)) {
		t.Errorf("expected content hash of input, got %s", run.ContentHash)
	}

	for _, name := range []string{GenerateOutput, AddresseeOutput, FinalOutput, FormattedOutput, ReportOutput, ValidationLogOutput, SummaryOutput} {
		if _, err := os.Stat(filepath.Join(p.cfg.OutputDir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}

	final := readTree(t, filepath.Join(p.cfg.OutputDir, FinalOutput))
	qs := final.All(final.Root, doctree.TagQ)
	if len(qs) != 1 {
		t.Fatalf("expected 1 q, got %d", len(qs))
	}
	q := final.Node(qs[0])
	if who, _ := q.Attr("who"); who != "#민수" {
		t.Errorf("expected who %q, got %q", "#민수", who)
	}
	ptr := final.Node(q.Children[0])
	if ptr.Tag != doctree.TagPtr {
		t.Fatalf("expected ptr as first child, got %s", ptr.Tag)
	}
	if target, _ := ptr.Attr("target"); target != "#지영" {
		t.Errorf("expected target %q, got %q", "#지영", target)
	}
	if len(final.All(final.Root, doctree.TagSp)) != 0 {
		t.Error("expected no sp left after transform")
	}

	csv, err := os.ReadFile(filepath.Join(p.cfg.OutputDir, ReportOutput))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(csv), "태깅된_청자,1,100.0%") {
		t.Errorf("unexpected report:\n%s", csv)
	}

	vlog, err := os.ReadFile(filepath.Join(p.cfg.OutputDir, ValidationLogOutput))
	if err != nil {
		t.Fatalf("read validation log: %v", err)
	}
	if !strings.HasPrefix(string(vlog), "Well-formed: OK\n") {
		t.Errorf("unexpected validation log %q", vlog)
	}
	if !strings.Contains(string(vlog), "RELAX NG: SKIPPED") {
		t.Errorf("expected skipped schema check, got %q", vlog)
	}

	readme, err := os.ReadFile(filepath.Join(p.cfg.OutputDir, SummaryOutput))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	for _, want := range []string{"- 원본: story.txt\n", "- 3단계: " + FinalOutput + "\n", "teigest generate story.txt"} {
		if !strings.Contains(string(readme), want) {
			t.Errorf("expected %q in summary:\n%s", want, readme)
		}
	}
	if run.Report == nil || run.Report.Tagged != 1 {
		t.Errorf("expected report stats on run, got %+v", run.Report)
	}

	if !strings.Contains(stdout.String(), "등장인물_수") {
		t.Errorf("expected report table on stdout, got %q", stdout.String())
	}
}

func TestStages_MatchRunAll(t *testing.T) {
	p, dir, _ := testPipeline(t)
	input := writeInput(t, dir, "story.txt", twoParagraphs)
	ctx := context.Background()
	out := p.cfg.OutputDir

	if _, err := p.Generate(ctx, input); err != nil {
		t.Fatalf("generate: %v", err)
	}
	generated := readTree(t, filepath.Join(out, GenerateOutput))
	if n := len(generated.All(generated.Root, doctree.TagPtr)); n != 0 {
		t.Errorf("expected no ptr before tagging, got %d", n)
	}

	if _, err := p.Addressee(ctx, filepath.Join(out, GenerateOutput)); err != nil {
		t.Fatalf("addressee: %v", err)
	}
	if _, err := p.Transform(ctx, filepath.Join(out, AddresseeOutput)); err != nil {
		t.Fatalf("transform: %v", err)
	}
	_, stats, err := p.Report(ctx, filepath.Join(out, FinalOutput))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if stats.Paragraphs != 2 || stats.Dialogue != 1 || stats.Narration != 1 {
		t.Errorf("unexpected paragraph counts %+v", stats)
	}
	if stats.Personas != 3 || stats.Tagged != 1 || stats.Untagged != 0 {
		t.Errorf("unexpected persona counts %+v", stats)
	}

	staged := readTree(t, filepath.Join(out, FinalOutput))

	q, dir2, _ := testPipeline(t)
	if _, err := q.RunAll(ctx, writeInput(t, dir2, "story.txt", twoParagraphs)); err != nil {
		t.Fatalf("run all: %v", err)
	}
	whole := readTree(t, filepath.Join(q.cfg.OutputDir, FinalOutput))
	if !doctree.Equal(staged, whole) {
		t.Error("expected stage-by-stage result to equal RunAll result")
	}
}

func TestGenerate_BacksUpExistingOutput(t *testing.T) {
	p, dir, _ := testPipeline(t)
	input := writeInput(t, dir, "story.txt", twoParagraphs)
	ctx := context.Background()

	if _, err := p.Generate(ctx, input); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	if _, err := p.Generate(ctx, input); err != nil {
		t.Fatalf("second generate: %v", err)
	}
	backup := filepath.Join(p.cfg.OutputDir, GenerateOutput+fileutil.BackupSuffix)
	if _, err := os.Stat(backup); err != nil {
		t.Errorf("expected backup %s: %v", backup, err)
	}
}

func TestAddressee_MalformedInputWritesNothing(t *testing.T) {
	p, dir, _ := testPipeline(t)
	input := writeInput(t, dir, "broken.xml", "<TEI><text>")

	run, err := p.Addressee(context.Background(), input)
	if err == nil {
		t.Fatal("expected error for malformed input")
	}
	if !errors.Is(err, teixml.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
	if run.Status != StatusFailed || len(run.Errors) != 1 {
		t.Errorf("expected failed run with one error, got %s %v", run.Status, run.Errors)
	}
	if _, err := os.Stat(filepath.Join(p.cfg.OutputDir, AddresseeOutput)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no output, stat returned %v", err)
	}
}

func TestGenerate_UnsupportedExtension(t *testing.T) {
	p, dir, _ := testPipeline(t)
	input := writeInput(t, dir, "story.xlsx", twoParagraphs)

	run, err := p.Generate(context.Background(), input)
	if err == nil {
		t.Fatal("expected error for unsupported input")
	}
	if run.Phase != "parsing input" {
		t.Errorf("expected failure in parsing phase, got %q", run.Phase)
	}
}
