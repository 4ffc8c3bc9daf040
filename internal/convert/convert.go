package convert

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"imgswap/pkg/imgutil"
)

// Error kinds reported for failed conversions. Use errors.Is.
var (
	ErrDecode     = errors.New("decode error")
	ErrEncode     = errors.New("encode error")
	ErrFilesystem = errors.New("filesystem error")
)

// Status tags the outcome of one conversion.
type Status int

const (
	StatusConverted Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusConverted:
		return "converted"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request describes a single file conversion.
type Request struct {
	Source  string
	Target  Format
	Quality int
}

// Result is the outcome of Convert. Output holds the written file for
// StatusConverted and the blocking file for a skip on an existing target.
type Result struct {
	Source     string
	Output     string
	Status     Status
	Reason     string
	Err        error
	Mode       ModeInfo
	SourceSize int64
	OutputSize int64
}

// Skip reasons.
const (
	ReasonTargetExists = "target exists"
	ReasonSameFormat   = "already in target format"
)

type Converter struct {
	logger *zap.Logger
}

func NewConverter(logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{logger: logger}
}

// Convert decodes req.Source, adapts its color mode to req.Target and writes
// the result next to the source. It never overwrites an existing file;
// failures are reported through the Result, not returned.
func (c *Converter) Convert(req Request) Result {
	res := Result{Source: req.Source}

	if req.Target.HasExt(req.Source) {
		return c.skip(res, ReasonSameFormat)
	}

	res.Output = TargetPath(req.Source, req.Target)
	if _, err := os.Stat(res.Output); err == nil {
		return c.skip(res, ReasonTargetExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return c.fail(res, fmt.Errorf("%w: %w", ErrFilesystem, err))
	}

	if req.Quality < 1 || req.Quality > 100 {
		return c.fail(res, fmt.Errorf("quality %d out of range 1-100", req.Quality))
	}

	img, mode, size, err := c.decode(req.Source)
	res.SourceSize = size
	if err != nil {
		return c.fail(res, err)
	}
	res.Mode = mode

	var buf bytes.Buffer
	if err := encodeImage(&buf, Prepare(img, mode, req.Target), req.Target, req.Quality); err != nil {
		return c.fail(res, fmt.Errorf("%w: %w", ErrEncode, err))
	}

	if err := writeExclusive(res.Output, buf.Bytes()); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return c.skip(res, ReasonTargetExists)
		}
		return c.fail(res, fmt.Errorf("%w: %w", ErrFilesystem, err))
	}

	res.Status = StatusConverted
	res.OutputSize = int64(buf.Len())
	c.logger.Info("converted",
		zap.String("source", res.Source),
		zap.String("output", res.Output),
		zap.Stringer("mode", res.Mode),
		zap.Int64("source_bytes", res.SourceSize),
		zap.Int64("output_bytes", res.OutputSize),
	)
	return res
}

func (c *Converter) decode(path string) (image.Image, ModeInfo, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ModeInfo{}, 0, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, ModeInfo{}, 0, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	size := info.Size()

	kind, err := imgutil.SniffReader(f)
	if err != nil {
		return nil, ModeInfo{}, size, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	var hint imgutil.PNGInfo
	if kind == imgutil.KindPNG {
		// A broken chunk stream surfaces as a decode error below.
		hint, _ = imgutil.InspectPNG(f)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, ModeInfo{}, size, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	img, err := DecodeImage(kind, f)
	if err != nil {
		return nil, ModeInfo{}, size, fmt.Errorf("%w: %s: %w", ErrDecode, kind, err)
	}

	return img, DetectMode(img, hint), size, nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

func (c *Converter) skip(res Result, reason string) Result {
	res.Status = StatusSkipped
	res.Reason = reason
	c.logger.Debug("skipped", zap.String("source", res.Source), zap.String("reason", reason))
	return res
}

func (c *Converter) fail(res Result, err error) Result {
	res.Status = StatusFailed
	res.Err = err
	c.logger.Warn("conversion failed", zap.String("source", res.Source), zap.Error(err))
	return res
}
