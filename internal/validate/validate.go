package validate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/teigest/internal/teixml"
)

// Status is the outcome of one check.
type Status string

const (
	StatusOK      Status = "OK"
	StatusFail    Status = "FAIL"
	StatusSkipped Status = "SKIPPED"
)

// Result describes one check. Message carries tool output or the reason a
// check was skipped.
type Result struct {
	Status  Status
	Message string
}

// Checker runs xmllint. When the binary cannot be found, well-formedness and
// formatting fall back to the in-process codec.
type Checker struct {
	Binary string
}

func NewChecker(binary string) *Checker {
	if binary == "" {
		binary = "xmllint"
	}
	return &Checker{Binary: binary}
}

func (c *Checker) available() bool {
	_, err := exec.LookPath(c.Binary)
	return err == nil
}

// WellFormed checks that path parses as XML.
func (c *Checker) WellFormed(ctx context.Context, path string) Result {
	if !c.available() {
		data, err := os.ReadFile(path)
		if err != nil {
			return Result{Status: StatusFail, Message: err.Error()}
		}
		if err := teixml.WellFormed(bytes.NewReader(data)); err != nil {
			return Result{Status: StatusFail, Message: err.Error()}
		}
		return Result{Status: StatusOK}
	}
	return c.run(ctx, nil, "--noout", path)
}

// RelaxNG validates path against schema. A missing schema file skips the
// check instead of failing it.
func (c *Checker) RelaxNG(ctx context.Context, path, schema string) Result {
	if _, err := os.Stat(schema); errors.Is(err, fs.ErrNotExist) {
		return Result{Status: StatusSkipped, Message: "schema file not found: " + schema}
	}
	if !c.available() {
		return Result{Status: StatusSkipped, Message: c.Binary + " not found in PATH"}
	}
	return c.run(ctx, nil, "--noout", "--relaxng", schema, path)
}

// Format writes an indented copy of the document at path to w.
func (c *Checker) Format(ctx context.Context, path string, w io.Writer) error {
	if !c.available() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		t, err := teixml.Unmarshal(data)
		if err != nil {
			return err
		}
		return teixml.Encode(w, t, teixml.Options{Indent: "  "})
	}
	if res := c.run(ctx, w, "--format", path); res.Status != StatusOK {
		return fmt.Errorf("%s --format: %s", c.Binary, res.Message)
	}
	return nil
}

func (c *Checker) run(ctx context.Context, stdout io.Writer, args ...string) Result {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return Result{Status: StatusFail, Message: msg}
	}
	return Result{Status: StatusOK, Message: strings.TrimSpace(stderr.String())}
}
