package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"byelaws/internal/domain"
	"byelaws/internal/port"
)

var _ port.PageExtractor = (*PDFToTextExtractor)(nil)

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// PDFToTextExtractor shells out to poppler's pdftotext, which handles
// layouts the native reader struggles with.
type PDFToTextExtractor struct {
	runner CommandRunner
}

func NewPDFToTextExtractor() *PDFToTextExtractor {
	return &PDFToTextExtractor{runner: execRunner{}}
}

func NewPDFToTextExtractorWithRunner(runner CommandRunner) *PDFToTextExtractor {
	return &PDFToTextExtractor{runner: runner}
}

// Available reports whether pdftotext is on PATH.
func Available() bool {
	_, err := exec.LookPath("pdftotext")
	return err == nil
}

func (e *PDFToTextExtractor) Pages(ctx context.Context, path string) ([]domain.Page, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", domain.ErrIngestion, path, err)
	}

	out, err := e.runner.Run(ctx, "pdftotext", []string{"-enc", "UTF-8", path, "-"}, nil)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: pdftotext failed on %s: %v", domain.ErrIngestion, path, err)
	}

	return splitFormFeed(string(out)), nil
}

// splitFormFeed splits text on form feeds, one page per segment. pdftotext
// terminates every page with a form feed, so a trailing empty segment is
// dropped.
func splitFormFeed(text string) []domain.Page {
	parts := strings.Split(text, "\f")
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 1 && parts[0] == "" {
		return []domain.Page{}
	}

	pages := make([]domain.Page, len(parts))
	for i, p := range parts {
		pages[i] = domain.Page{Number: i + 1, Text: p}
	}
	return pages
}
