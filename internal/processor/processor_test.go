package processor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"go.uber.org/zap/zaptest"

	"imgswap/internal/convert"
)

func TestRunJPEGRecursive(t *testing.T) {
	root := t.TempDir()
	writeTestPNG(t, filepath.Join(root, "a.png"), translucentImage(12, 12))
	writeTestPNG(t, filepath.Join(root, "sub", "c.png"), opaqueImage(6, 6))
	writeFile(t, filepath.Join(root, "sub", "c.jpg"), []byte("existing"))
	writeTestWEBP(t, filepath.Join(root, "sub", "deep", "b.webp"), opaqueImage(10, 4))
	writeFile(t, filepath.Join(root, "broken.png"), []byte("garbage"))
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("not an image"))

	updates := make(chan ProgressUpdate, 64)
	summary, err := Run(context.Background(), root, Options{
		Target:    convert.FormatJPEG,
		Quality:   95,
		Recursive: true,
		Logger:    zaptest.NewLogger(t),
	}, updates)
	close(updates)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.Found != 4 || summary.Converted != 2 || summary.Skipped != 1 || summary.Errors != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.BytesIn <= 0 || summary.BytesOut <= 0 {
		t.Fatalf("expected byte totals, got %+v", summary)
	}

	for _, rel := range []string{"a.jpg", "sub/deep/b.jpg", "a.png", "sub/deep/b.webp", "broken.png"} {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("expected %s to exist: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "broken.jpg")); !os.IsNotExist(err) {
		t.Fatal("failed conversion should not leave output")
	}
	if data, _ := os.ReadFile(filepath.Join(root, "sub", "c.jpg")); string(data) != "existing" {
		t.Fatal("existing target was overwritten")
	}

	var total, processed int
	var lines []string
	for u := range updates {
		total += u.TotalDelta
		processed += u.ProcessedDelta
		if u.Line != "" {
			lines = append(lines, u.Line)
		}
	}
	if total != 4 || processed != 4 {
		t.Fatalf("expected 4 total and processed, got %d/%d", total, processed)
	}
	if !containsLine(lines, "Skipping (JPG exists): sub/c.png") {
		t.Fatalf("missing skip line in %q", lines)
	}
	if !containsLine(lines, "Error converting broken.png") {
		t.Fatalf("missing error line in %q", lines)
	}
	if !containsLine(lines, "[RGBA] a.png → a.jpg") {
		t.Fatalf("missing converted line in %q", lines)
	}
}

func TestRunWEBPOneLevelWithDelete(t *testing.T) {
	root := t.TempDir()
	writeTestPNG(t, filepath.Join(root, "top.png"), opaqueImage(4, 4))
	writeTestPNG(t, filepath.Join(root, "sub", "a.png"), translucentImage(8, 8))
	writeTestWEBP(t, filepath.Join(root, "sub", "x.webp"), opaqueImage(4, 4))
	writeTestPNG(t, filepath.Join(root, "sub", "deeper", "b.png"), opaqueImage(4, 4))

	summary, err := Run(context.Background(), root, Options{
		Target:          convert.FormatWEBP,
		Quality:         80,
		DeleteOriginals: true,
		Logger:          zaptest.NewLogger(t),
	}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.Found != 1 || summary.Converted != 1 || summary.Deleted != 1 || summary.DeleteErrors != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(root, "sub", "a.webp")); err != nil {
		t.Fatalf("expected output: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "sub", "a.png")); !os.IsNotExist(err) {
		t.Fatal("expected original to be deleted")
	}
	for _, rel := range []string{"top.png", "sub/deeper/b.png", "sub/x.webp"} {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("expected %s untouched: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "top.webp")); !os.IsNotExist(err) {
		t.Fatal("root-level files are outside the one-level walk")
	}
}

func TestRunDeleteKeepsSkippedAndFailed(t *testing.T) {
	root := t.TempDir()
	writeTestPNG(t, filepath.Join(root, "ok.png"), opaqueImage(4, 4))
	writeTestPNG(t, filepath.Join(root, "dup.png"), opaqueImage(4, 4))
	writeFile(t, filepath.Join(root, "dup.jpg"), []byte("existing"))
	writeFile(t, filepath.Join(root, "bad.png"), []byte("garbage"))

	summary, err := Run(context.Background(), root, Options{
		Target:          convert.FormatJPEG,
		Quality:         90,
		Recursive:       true,
		DeleteOriginals: true,
	}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Deleted != 1 {
		t.Fatalf("expected exactly one deletion, got %+v", summary)
	}
	for _, name := range []string{"dup.png", "bad.png", "dup.jpg", "ok.jpg"} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Fatalf("expected %s to remain: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "ok.png")); !os.IsNotExist(err) {
		t.Fatal("expected converted original to be deleted")
	}
}

func TestRunRootErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Run(context.Background(), filepath.Join(dir, "missing"), Options{Target: convert.FormatJPEG, Quality: 95}, nil); err == nil {
		t.Fatal("expected error for missing root")
	}

	file := filepath.Join(dir, "file.png")
	writeFile(t, file, []byte("x"))
	if _, err := Run(context.Background(), file, Options{Target: convert.FormatJPEG, Quality: 95}, nil); err == nil {
		t.Fatal("expected error for non-directory root")
	}
}

func TestRunCanceled(t *testing.T) {
	root := t.TempDir()
	writeTestPNG(t, filepath.Join(root, "a.png"), opaqueImage(4, 4))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := Run(ctx, root, Options{Target: convert.FormatJPEG, Quality: 95, Recursive: true}, nil)
	if err != nil {
		t.Fatalf("cancellation should not be an error: %v", err)
	}
	if summary.Found != 1 || summary.Converted != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(root, "a.jpg")); !os.IsNotExist(err) {
		t.Fatal("nothing should be converted after cancellation")
	}
}

func opaqueImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 20), B: 0x40, A: 0xff})
		}
	}
	return img
}

func translucentImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 0xc0, G: 0x20, B: 0x20, A: uint8(x * 20)})
		}
	}
	return img
}

func writeTestPNG(t *testing.T, path string, img image.Image) {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	writeFile(t, path, buf.Bytes())
}

func writeTestWEBP(t *testing.T, path string, img image.Image) {
	t.Helper()

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
		t.Fatalf("encode webp: %v", err)
	}
	writeFile(t, path, buf.Bytes())
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func containsLine(lines []string, want string) bool {
	for _, line := range lines {
		if strings.Contains(line, want) {
			return true
		}
	}
	return false
}
