package convert

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a conversion target.
type Format int

const (
	FormatWEBP Format = iota + 1
	FormatJPEG
)

func (f Format) String() string {
	switch f {
	case FormatWEBP:
		return "webp"
	case FormatJPEG:
		return "jpg"
	default:
		return "unknown"
	}
}

// Ext is the canonical file extension written for the format.
func (f Format) Ext() string {
	return "." + f.String()
}

// SupportsAlpha reports whether the format can carry per-pixel transparency.
func (f Format) SupportsAlpha() bool {
	return f == FormatWEBP
}

// HasExt reports whether path already carries one of the format's extensions.
func (f Format) HasExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch f {
	case FormatWEBP:
		return ext == ".webp"
	case FormatJPEG:
		return ext == ".jpg" || ext == ".jpeg"
	default:
		return false
	}
}

// SourceExts lists the extensions a batch run picks up for this target.
func (f Format) SourceExts() []string {
	switch f {
	case FormatWEBP:
		return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"}
	case FormatJPEG:
		return []string{".webp", ".png"}
	default:
		return nil
	}
}

// ParseFormat accepts "webp", "jpg" and "jpeg" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "webp":
		return FormatWEBP, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	default:
		return 0, fmt.Errorf("unsupported target format %q", s)
	}
}

// TargetPath swaps the extension of source for the target's canonical one.
func TargetPath(source string, target Format) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + target.Ext()
}
