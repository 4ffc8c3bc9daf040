package convert

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	xwebp "golang.org/x/image/webp"

	"imgswap/pkg/imgutil"
)

type decoder struct {
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
}

// Decoders are picked by sniffed content, so a mislabeled file still
// decodes with the right codec.
var decoders = map[imgutil.Kind]decoder{
	imgutil.KindPNG:  {png.Decode, png.DecodeConfig},
	imgutil.KindJPEG: {jpeg.Decode, jpeg.DecodeConfig},
	imgutil.KindWEBP: {xwebp.Decode, xwebp.DecodeConfig},
	imgutil.KindGIF:  {gif.Decode, gif.DecodeConfig},
	imgutil.KindBMP:  {bmp.Decode, bmp.DecodeConfig},
	imgutil.KindTIFF: {tiff.Decode, tiff.DecodeConfig},
}

// DecodeImage decodes r with the codec registered for kind.
func DecodeImage(kind imgutil.Kind, r io.Reader) (image.Image, error) {
	d, ok := decoders[kind]
	if !ok {
		return nil, fmt.Errorf("unrecognized image format")
	}
	return d.decode(r)
}

// DecodeConfig reads only the header of r with the codec registered for kind.
func DecodeConfig(kind imgutil.Kind, r io.Reader) (image.Config, error) {
	d, ok := decoders[kind]
	if !ok {
		return image.Config{}, fmt.Errorf("unrecognized image format")
	}
	return d.config(r)
}

func encodeImage(w io.Writer, img image.Image, target Format, quality int) error {
	switch target {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatWEBP:
		// The encoder hands *image.RGBA pixels to libwebp as straight alpha,
		// so NRGBA data is passed through unpremultiplied.
		if n, ok := img.(*image.NRGBA); ok {
			img = &image.RGBA{Pix: n.Pix, Stride: n.Stride, Rect: n.Rect}
		}
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	default:
		return fmt.Errorf("unsupported target format %s", target)
	}
}
