// Package pandoc runs the external pandoc converter on a preprocessed
// LaTeX document.
package pandoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yuanying/tex2epub/internal/latex"
)

const (
	DefaultBinary     = "pandoc"
	DefaultTOCDepth   = 2
	DefaultSplitLevel = 1

	// InputFileName is the name the preprocessed document is written under
	// inside the work directory.
	InputFileName = "_preprocessed.tex"

	maxWarningLines   = 10
	shownWarningLines = 5
)

var (
	ErrBinaryNotFound   = errors.New("pandoc not found")
	ErrConversionFailed = errors.New("pandoc failed")
)

type Converter struct {
	Binary     string
	TOCDepth   int
	SplitLevel int
	ExtraArgs  []string
	Logger     *slog.Logger
}

func NewConverter(binary string) *Converter {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Converter{
		Binary:     binary,
		TOCDepth:   DefaultTOCDepth,
		SplitLevel: DefaultSplitLevel,
	}
}

// Request describes one conversion.
type Request struct {
	// Text is the preprocessed document.
	Text     string
	Metadata latex.Metadata
	// WorkDir holds the document's resources; pandoc runs inside it.
	WorkDir string
	// ScratchDir receives the preprocessed document. Empty means WorkDir.
	ScratchDir string
	Output     string
	CSS        string
	// Bibliography enables citeproc when non-empty.
	Bibliography string
}

// Result is the outcome of a conversion that produced an output file.
type Result struct {
	Output   string
	Warnings []string
}

// Args returns the pandoc command line for req reading texFile, without the
// binary name.
func (c *Converter) Args(req Request, texFile string) []string {
	args := []string{
		texFile,
		"--from", "latex",
		"--to", "epub3",
		"--mathml",
		"--toc",
		"--toc-depth=" + strconv.Itoa(c.TOCDepth),
		"--split-level=" + strconv.Itoa(c.SplitLevel),
		"--resource-path=" + req.WorkDir,
	}
	if req.CSS != "" {
		args = append(args, "--css="+req.CSS)
	}
	if req.Bibliography != "" {
		args = append(args, "--citeproc", "--bibliography="+req.Bibliography)
	}
	if req.Metadata.Title != "" {
		args = append(args, "--metadata", "title="+req.Metadata.Title)
	}
	for _, author := range req.Metadata.Authors {
		args = append(args, "--metadata", "author="+author)
	}
	if req.Metadata.Date != "" {
		args = append(args, "--metadata", "date="+req.Metadata.Date)
	}
	args = append(args, c.ExtraArgs...)
	return append(args, "-o", req.Output)
}

// Convert writes req.Text to the scratch directory and runs pandoc on it. A
// non-zero exit is tolerated when the output file was still written; the
// diagnostics are then returned as warnings.
func (c *Converter) Convert(ctx context.Context, req Request) (Result, error) {
	binary, err := exec.LookPath(c.Binary)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrBinaryNotFound, c.Binary)
	}

	scratch := req.ScratchDir
	if scratch == "" {
		scratch = req.WorkDir
	}
	texFile := filepath.Join(scratch, InputFileName)
	if err := os.WriteFile(texFile, []byte(req.Text), 0o644); err != nil {
		return Result{}, fmt.Errorf("failed to write preprocessed document: %w", err)
	}

	cmd := exec.CommandContext(ctx, binary, c.Args(req, texFile)...)
	cmd.Dir = req.WorkDir
	cmd.WaitDelay = 5 * time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.logger().Info("running pandoc", "output", req.Output, "citeproc", req.Bibliography != "")
	runErr := cmd.Run()

	info, statErr := os.Stat(req.Output)
	if runErr != nil && statErr != nil {
		return Result{}, fmt.Errorf("%w: %v: %s", ErrConversionFailed, runErr, strings.TrimSpace(stderr.String()))
	}
	if statErr != nil {
		return Result{}, fmt.Errorf("%w: no output file produced", ErrConversionFailed)
	}

	c.logger().Info("pandoc finished", "output", filepath.Base(req.Output), "kb", info.Size()/1024)
	return Result{Output: req.Output, Warnings: warningLines(stderr.String())}, nil
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func warningLines(stderr string) []string {
	var lines []string
	for _, line := range strings.Split(stderr, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, "\r"))
		}
	}
	return lines
}

// SummarizeWarnings returns the lines to show for a set of warnings: all of
// them when there are few, otherwise a count followed by the first few.
func SummarizeWarnings(lines []string) []string {
	if len(lines) <= maxWarningLines {
		return lines
	}
	out := []string{fmt.Sprintf("%d warnings (showing first %d)", len(lines), shownWarningLines)}
	return append(out, lines[:shownWarningLines]...)
}
