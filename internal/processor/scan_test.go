package processor

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"imgswap/internal/convert"
	"imgswap/pkg/imgutil"
)

func TestScanReportsModesAndMetadata(t *testing.T) {
	root := t.TempDir()

	if err := buildJPEGWithExif(filepath.Join(root, "album", "camera.jpg")); err != nil {
		t.Fatalf("build JPEG: %v", err)
	}
	icon := image.NewPaletted(image.Rect(0, 0, 5, 3), color.Palette{color.Transparent, color.White})
	writeTestPNG(t, filepath.Join(root, "album", "icon.png"), icon)
	writeFile(t, filepath.Join(root, "album", "icon.webp"), []byte("existing"))

	reports, totals, err := Scan(context.Background(), root, Options{
		Target: convert.FormatWEBP,
		Logger: zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(reports) != 2 || totals.Files != 2 {
		t.Fatalf("expected 2 reports, got %d (%+v)", len(reports), totals)
	}

	camera := reports[0]
	if camera.Path != "album/camera.jpg" || camera.Kind != imgutil.KindJPEG || camera.Err != nil {
		t.Fatalf("unexpected camera report: %+v", camera)
	}
	if camera.Mode.Mode != convert.ModeRGB || camera.Width != 16 || camera.Height != 8 {
		t.Fatalf("unexpected camera geometry: %+v", camera)
	}
	if camera.ExifTags == 0 || !hasCategory(camera.Metadata, "Device Model") || !hasCategory(camera.Metadata, "Timestamp") {
		t.Fatalf("expected EXIF model and timestamp, got %+v", camera)
	}
	if camera.TargetExists {
		t.Fatal("camera.webp does not exist yet")
	}

	iconReport := reports[1]
	if iconReport.Kind != imgutil.KindPNG || !iconReport.TargetExists {
		t.Fatalf("unexpected icon report: %+v", iconReport)
	}
	if iconReport.Mode.Mode != convert.ModePaletted || !iconReport.Mode.Transparent {
		t.Fatalf("expected transparent palette, got %s", iconReport.Mode)
	}

	if totals.TargetsExisting != 1 || totals.WithMetadata != 1 || totals.Bytes <= 0 {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	if _, err := os.Stat(filepath.Join(root, "album", "camera.webp")); !os.IsNotExist(err) {
		t.Fatal("scan must not write files")
	}
}

func TestScanUnrecognizedContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "fake.png"), []byte("plain text pretending"))

	reports, totals, err := Scan(context.Background(), root, Options{Target: convert.FormatJPEG, Recursive: true})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(reports) != 1 || reports[0].Err == nil || totals.Unreadable != 1 {
		t.Fatalf("expected one unreadable report, got %+v %+v", reports, totals)
	}
}

func TestAnalyzeExifFindsEmbeddedBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.jpg")
	if err := buildJPEGWithExif(path); err != nil {
		t.Fatalf("build JPEG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	// Leave the reader mid-file, as scanJob does after DecodeConfig.
	if _, err := f.Seek(20, io.SeekStart); err != nil {
		t.Fatal(err)
	}

	analysis, err := analyzeExif(f)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Tags < 2 || !analysis.HasModel || !analysis.HasTimestamp || analysis.HasGPS {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
}

func TestAnalyzeExifWithoutBlock(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatal(err)
	}

	analysis, err := analyzeExif(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("expected no error for a plain JPEG, got %v", err)
	}
	if analysis.Tags != 0 || len(analysis.categories()) != 0 {
		t.Fatalf("expected empty analysis, got %+v", analysis)
	}
}

func hasCategory(cats []string, want string) bool {
	for _, c := range cats {
		if c == want {
			return true
		}
	}
	return false
}

// buildJPEGWithExif writes a decodable 16x8 JPEG with an APP1 EXIF segment
// spliced in after SOI.
func buildJPEGWithExif(path string) error {
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 0x80, G: uint8(x * 10), B: 0x20, A: 0xff})
		}
	}

	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, img, &jpeg.Options{Quality: 90}); err != nil {
		return err
	}

	exif := append([]byte("Exif\x00\x00"), buildExifTIFF()...)

	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xd8})
	buf.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(exif)+2))
	buf.Write(exif)
	buf.Write(encoded.Bytes()[2:])

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func buildExifTIFF() []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0110))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(38))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0132))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(20))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(46))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	tiff.Write([]byte("TestCam\x00"))
	tiff.Write([]byte("2024:01:02 03:04:05\x00"))
	return tiff.Bytes()
}
