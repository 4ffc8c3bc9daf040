package convert

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"imgswap/pkg/imgutil"
)

// Mode is the color layout of a decoded image.
type Mode int

const (
	ModeRGB Mode = iota
	ModeRGBA
	ModeGray
	ModeGrayAlpha
	ModePaletted
)

func (m Mode) String() string {
	switch m {
	case ModeRGB:
		return "RGB"
	case ModeRGBA:
		return "RGBA"
	case ModeGray:
		return "Gray"
	case ModeGrayAlpha:
		return "GrayAlpha"
	case ModePaletted:
		return "Paletted"
	default:
		return "unknown"
	}
}

// ModeInfo pairs a Mode with palette transparency, which only Paletted uses.
type ModeInfo struct {
	Mode        Mode
	Transparent bool
}

func (mi ModeInfo) String() string {
	if mi.Mode == ModePaletted && mi.Transparent {
		return "Paletted+alpha"
	}
	return mi.Mode.String()
}

// HasAlpha reports whether the image carries an alpha channel or a
// transparent palette entry.
func (mi ModeInfo) HasAlpha() bool {
	switch mi.Mode {
	case ModeRGBA, ModeGrayAlpha:
		return true
	case ModePaletted:
		return mi.Transparent
	default:
		return false
	}
}

// DetectMode classifies a decoded image. The PNG hint distinguishes
// gray+alpha sources, which the PNG decoder hands back as NRGBA.
func DetectMode(img image.Image, hint imgutil.PNGInfo) ModeInfo {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return ModeInfo{Mode: ModeGray}
	case *image.Paletted:
		return ModeInfo{Mode: ModePaletted, Transparent: paletteHasAlpha(m.Palette)}
	case *image.YCbCr, *image.CMYK:
		return ModeInfo{Mode: ModeRGB}
	case *image.NYCbCrA:
		return ModeInfo{Mode: ModeRGBA}
	case *image.NRGBA, *image.NRGBA64:
		return alphaMode(hint)
	}

	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return ModeInfo{Mode: ModeRGB}
	}
	return alphaMode(hint)
}

// ModeFromConfig classifies an image from its header alone.
func ModeFromConfig(cfg image.Config, hint imgutil.PNGInfo) ModeInfo {
	if pal, ok := cfg.ColorModel.(color.Palette); ok {
		return ModeInfo{Mode: ModePaletted, Transparent: paletteHasAlpha(pal) || hint.HasTRNS}
	}

	switch cfg.ColorModel {
	case color.GrayModel, color.Gray16Model:
		if hint.HasTRNS {
			return ModeInfo{Mode: ModeGrayAlpha}
		}
		return ModeInfo{Mode: ModeGray}
	case color.YCbCrModel, color.CMYKModel:
		return ModeInfo{Mode: ModeRGB}
	case color.RGBAModel, color.RGBA64Model:
		if hint.HasTRNS {
			return ModeInfo{Mode: ModeRGBA}
		}
		return ModeInfo{Mode: ModeRGB}
	default:
		return alphaMode(hint)
	}
}

func alphaMode(hint imgutil.PNGInfo) ModeInfo {
	if hint.Valid && (hint.ColorType == imgutil.PNGGrayAlpha || hint.ColorType == imgutil.PNGGray) {
		return ModeInfo{Mode: ModeGrayAlpha}
	}
	return ModeInfo{Mode: ModeRGBA}
}

func paletteHasAlpha(p color.Palette) bool {
	for _, c := range p {
		if _, _, _, a := c.RGBA(); a != 0xffff {
			return true
		}
	}
	return false
}

// Prepare turns a decoded image into the bitmap handed to the target
// encoder: alpha is kept for alpha-capable targets, flattened onto white
// otherwise, and everything else becomes plain RGB.
func Prepare(img image.Image, mode ModeInfo, target Format) image.Image {
	if mode.HasAlpha() {
		if target.SupportsAlpha() {
			return toNRGBA(img)
		}
		return Flatten(img, color.White)
	}
	return toRGBA(img)
}

// Flatten composites img over a solid background using its alpha as the
// blend mask. The result is fully opaque when bg is.
func Flatten(img image.Image, bg color.Color) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
