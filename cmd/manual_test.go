package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestExportManual(t *testing.T) {
	t.Parallel()

	stub := &stubExporter{}
	builds, cleanups := 0, 0
	out := filepath.Join(t.TempDir(), "cv.txt")

	err := exportManual(context.Background(), AppConfig{}, func(AppConfig) (appDeps, func(), error) {
		builds++
		return appDeps{exporter: stub}, func() { cleanups++ }, nil
	}, 7, "text", out)
	if err != nil {
		t.Fatalf("exportManual error: %v", err)
	}
	if builds != 1 || cleanups != 1 {
		t.Fatalf("expected one build and one cleanup, got %d/%d", builds, cleanups)
	}
	if stub.calls != 1 || stub.docID != 7 || stub.format != "text" {
		t.Fatalf("unexpected export call: %+v", stub)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "cv 7 as text" {
		t.Fatalf("unexpected output %q", data)
	}
}

func TestExportManualBuilderError(t *testing.T) {
	t.Parallel()

	err := exportManual(context.Background(), AppConfig{}, func(AppConfig) (appDeps, func(), error) {
		return appDeps{}, func() {}, errors.New("build fail")
	}, 1, "pdf", "")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

// --- stubs ---

type stubExporter struct {
	calls  int
	docID  uint
	format string
}

func (s *stubExporter) Export(_ context.Context, docID uint, format string, w io.Writer) error {
	s.calls++
	s.docID = docID
	s.format = format
	_, err := fmt.Fprintf(w, "cv %d as %s", docID, format)
	return err
}
