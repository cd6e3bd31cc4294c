package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/teigest/internal/addressee"
	"github.com/dgallion1/teigest/internal/builder"
	"github.com/dgallion1/teigest/internal/config"
	"github.com/dgallion1/teigest/internal/doctree"
	"github.com/dgallion1/teigest/internal/fileutil"
	"github.com/dgallion1/teigest/internal/parser"
	"github.com/dgallion1/teigest/internal/persona"
	"github.com/dgallion1/teigest/internal/report"
	"github.com/dgallion1/teigest/internal/segment"
	"github.com/dgallion1/teigest/internal/teixml"
	"github.com/dgallion1/teigest/internal/transform"
	"github.com/dgallion1/teigest/internal/validate"
)

// Output file names, one per stage artifact.
const (
	GenerateOutput      = "test_tei.xml"
	AddresseeOutput     = "test_tei_with_addressee.xml"
	FinalOutput         = "test_tei_final.xml"
	FormattedOutput     = "test_tei_final.formatted.xml"
	ReportOutput        = "quality_report.csv"
	ValidationLogOutput = "validation_log.txt"
	SummaryOutput       = "README.md"
)

// summaryArtifacts lists the run files in stage order for the README.
var summaryArtifacts = []report.Artifact{
	{Label: "1단계", Name: GenerateOutput},
	{Label: "2단계", Name: AddresseeOutput},
	{Label: "3단계", Name: FinalOutput},
	{Label: "포맷팅", Name: FormattedOutput},
	{Label: "품질 리포트", Name: ReportOutput},
	{Label: "검증 로그", Name: ValidationLogOutput},
}

// Pipeline runs the conversion stages. Every stage reads its whole input,
// works in memory, and only then writes its artifact.
type Pipeline struct {
	cfg     config.Config
	log     *slog.Logger
	checker *validate.Checker
	stdout  io.Writer
}

// New creates a pipeline writing artifacts to cfg.OutputDir. The report
// table is printed to stdout.
func New(cfg config.Config, log *slog.Logger, stdout io.Writer) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		log:     log,
		checker: validate.NewChecker(cfg.XMLLintPath),
		stdout:  stdout,
	}
}

func (p *Pipeline) outPath(name string) string {
	return filepath.Join(p.cfg.OutputDir, name)
}

// Generate parses a transcript and writes the attributed TEI document.
func (p *Pipeline) Generate(ctx context.Context, input string) (*Run, error) {
	run := NewRun(input)
	log := p.log.With("run_id", run.ID, "stage", "generate")

	tree, err := p.generate(run, log, input)
	if err != nil {
		return p.fail(run, log, err)
	}
	if err := p.writeTree(run, log, GenerateOutput, tree); err != nil {
		return p.fail(run, log, err)
	}
	run.SetStatus(StatusCompleted, "done")
	return run, nil
}

// Addressee tags addressees in a generated document.
func (p *Pipeline) Addressee(ctx context.Context, input string) (*Run, error) {
	run := NewRun(input)
	log := p.log.With("run_id", run.ID, "stage", "addressee")

	tree, err := p.readTree(run, input)
	if err != nil {
		return p.fail(run, log, err)
	}
	if err := p.tag(run, log, tree); err != nil {
		return p.fail(run, log, err)
	}
	if err := p.writeTree(run, log, AddresseeOutput, tree); err != nil {
		return p.fail(run, log, err)
	}
	run.SetStatus(StatusCompleted, "done")
	return run, nil
}

// Transform canonicalizes the header and rewrites sp to q.
func (p *Pipeline) Transform(ctx context.Context, input string) (*Run, error) {
	run := NewRun(input)
	log := p.log.With("run_id", run.ID, "stage", "transform")

	tree, err := p.readTree(run, input)
	if err != nil {
		return p.fail(run, log, err)
	}
	final, err := p.transform(run, log, tree)
	if err != nil {
		return p.fail(run, log, err)
	}
	if err := p.writeTree(run, log, FinalOutput, final); err != nil {
		return p.fail(run, log, err)
	}
	run.SetStatus(StatusCompleted, "done")
	return run, nil
}

// Report formats and validates a finished document and writes the quality
// report and validation log.
func (p *Pipeline) Report(ctx context.Context, input string) (*Run, report.Stats, error) {
	run := NewRun(input)
	log := p.log.With("run_id", run.ID, "stage", "report")

	stats, err := p.report(ctx, run, log, input)
	if err != nil {
		run, err = p.fail(run, log, err)
		return run, stats, err
	}
	run.SetStatus(StatusCompleted, "done")
	return run, stats, nil
}

// RunAll performs every stage on one transcript, writing each stage's
// artifact as it goes.
func (p *Pipeline) RunAll(ctx context.Context, input string) (*Run, error) {
	run := NewRun(input)
	log := p.log.With("run_id", run.ID, "stage", "all")

	tree, err := p.generate(run, log, input)
	if err != nil {
		return p.fail(run, log, err)
	}
	if err := p.writeTree(run, log, GenerateOutput, tree); err != nil {
		return p.fail(run, log, err)
	}
	if err := p.tag(run, log, tree); err != nil {
		return p.fail(run, log, err)
	}
	if err := p.writeTree(run, log, AddresseeOutput, tree); err != nil {
		return p.fail(run, log, err)
	}
	final, err := p.transform(run, log, tree)
	if err != nil {
		return p.fail(run, log, err)
	}
	if err := p.writeTree(run, log, FinalOutput, final); err != nil {
		return p.fail(run, log, err)
	}
	if _, err := p.report(ctx, run, log, p.outPath(FinalOutput)); err != nil {
		return p.fail(run, log, err)
	}
	run.SetStatus(StatusCompleted, "done")
	return run, nil
}

func (p *Pipeline) generate(run *Run, log *slog.Logger, input string) (*doctree.Tree, error) {
	run.SetStatus(StatusParsing, "parsing input")
	prs, err := parser.ForFile(input, parser.Options{PDFFallbackPdftotext: p.cfg.PDFFallbackPdftotext})
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	run.ContentHash = ContentHashHex(data)

	src, err := prs.Parse(bytes.NewReader(data), filepath.Base(input))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", input, err)
	}

	title, author := segment.GuessTitleAuthor(src.Text, segment.Defaults{
		Title:  p.cfg.DefaultTitle,
		Author: p.cfg.DefaultAuthor,
	})
	paras := segment.Segment(src.Text)
	dialogue, narration := segment.Counts(paras)
	log.Info("parsed input",
		"file", src.Name, "content_hash", run.ContentHash,
		"title", title, "author", author,
		"paragraphs", len(paras), "dialogue", dialogue, "narration", narration)

	run.SetStatus(StatusBuilding, "building document")
	reg := persona.Extract(paras, persona.Options{HarvestVocatives: p.cfg.HarvestVocatives})
	names := make([]string, 0, reg.Len())
	for _, ps := range reg.All() {
		names = append(names, ps.DisplayName)
	}
	log.Info("extracted personas", "count", reg.Len(), "personas", names)

	tree, stats, err := builder.Build(paras, reg, builder.Meta{
		Title:       title,
		Author:      author,
		Publication: p.cfg.Publication,
		Source:      "원본: " + src.Name,
	})
	if err != nil {
		return nil, err
	}
	log.Info("built document",
		"dialogue", stats.Dialogue, "narration", stats.Narration,
		"unattributed", stats.Unattributed())
	return tree, nil
}

func (p *Pipeline) tag(run *Run, log *slog.Logger, tree *doctree.Tree) error {
	run.SetStatus(StatusTagging, "tagging addressees")
	res, err := addressee.Resolve(tree, persona.FromTree(tree))
	if err != nil {
		return fmt.Errorf("resolve addressees: %w", err)
	}
	log.Info("tagged addressees",
		"tagged", res.Tagged, "untagged", res.Untagged,
		"direct", res.Direct, "fallback", res.Fallback)
	return nil
}

func (p *Pipeline) transform(run *Run, log *slog.Logger, tree *doctree.Tree) (*doctree.Tree, error) {
	run.SetStatus(StatusTransforming, "transforming schema")
	final, err := transform.Apply(tree)
	if err != nil {
		return nil, err
	}
	log.Info("transformed schema", "quotations", len(final.All(final.Root, doctree.TagQ)))
	return final, nil
}

func (p *Pipeline) report(ctx context.Context, run *Run, log *slog.Logger, input string) (report.Stats, error) {
	run.SetStatus(StatusReporting, "reporting")

	tree, err := p.readTree(run, input)
	if err != nil {
		return report.Stats{}, err
	}

	formatted := p.outPath(FormattedOutput)
	if _, err := fileutil.WriteWithBackup(formatted, func(w io.Writer) error {
		return p.checker.Format(ctx, input, w)
	}); err != nil {
		// The formatted copy is a convenience; its failure does not void the report.
		log.Warn("format failed", "error", err)
	} else {
		run.AddOutput(formatted)
	}

	wf := p.checker.WellFormed(ctx, input)
	rng := p.checker.RelaxNG(ctx, input, p.cfg.SchemaPath)
	log.Info("validated document", "well_formed", wf.Status, "relaxng", rng.Status, "relaxng_message", rng.Message)

	stats := report.Collect(tree)
	if err := p.write(run, log, ReportOutput, func(w io.Writer) error {
		return report.WriteCSV(w, stats)
	}); err != nil {
		return stats, err
	}
	if err := p.write(run, log, ValidationLogOutput, func(w io.Writer) error {
		return report.WriteValidationLog(w, wf, rng)
	}); err != nil {
		return stats, err
	}

	if err := p.write(run, log, SummaryOutput, func(w io.Writer) error {
		return report.WriteSummary(w, summary(tree))
	}); err != nil {
		return stats, err
	}
	run.Report = &stats

	if p.stdout != nil {
		fmt.Fprintln(p.stdout, report.RenderTable(stats))
	}
	log.Info("report written",
		"paragraphs", stats.Paragraphs, "dialogue", stats.Dialogue,
		"personas", stats.Personas, "tagged", stats.Tagged, "untagged", stats.Untagged)
	return stats, nil
}

// summary describes the run that produced tree. The source name comes back
// from the sourceDesc written at generation.
func summary(tree *doctree.Tree) report.Summary {
	source := "unknown"
	if id := tree.FindPath(tree.Root, doctree.TagHeader, doctree.TagFileDesc, doctree.TagSourceDesc); id != doctree.NoNode {
		if text := strings.TrimPrefix(tree.Node(id).Text, "원본: "); text != "" {
			source = text
		}
	}
	return report.Summary{
		Source:    source,
		Artifacts: summaryArtifacts,
		Commands: []string{
			"teigest generate " + source,
			"teigest addressee " + GenerateOutput,
			"teigest transform " + AddresseeOutput,
			"teigest report " + FinalOutput,
		},
	}
}

// readTree loads a document produced by an earlier stage.
func (p *Pipeline) readTree(run *Run, path string) (*doctree.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if run.ContentHash == "" {
		run.ContentHash = ContentHashHex(data)
	}
	tree, err := teixml.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

func (p *Pipeline) writeTree(run *Run, log *slog.Logger, name string, tree *doctree.Tree) error {
	return p.write(run, log, name, func(w io.Writer) error {
		return teixml.Encode(w, tree, teixml.Options{})
	})
}

func (p *Pipeline) write(run *Run, log *slog.Logger, name string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := p.outPath(name)
	backedUp, err := fileutil.WriteWithBackup(path, fn)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if backedUp {
		log.Info("backup created", "path", path+fileutil.BackupSuffix)
	}
	run.AddOutput(path)
	log.Info("wrote output", "path", path)
	return nil
}

func (p *Pipeline) fail(run *Run, log *slog.Logger, err error) (*Run, error) {
	run.Fail(err)
	log.Error("stage failed", "phase", run.Phase, "error", err)
	return run, err
}
