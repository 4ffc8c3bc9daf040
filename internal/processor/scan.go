package processor

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"imgswap/internal/convert"
	"imgswap/pkg/imgutil"
)

// Scan lists the files a Run with the same options would pick up, without
// decoding pixel data or writing anything.
func Scan(ctx context.Context, root string, opts Options) ([]ScanReport, ScanTotals, error) {
	totals := ScanTotals{}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	absRoot, err := resolveRoot(root)
	if err != nil {
		return nil, totals, err
	}

	jobs, walkErrs := collectJobs(absRoot, opts)
	for _, walkErr := range walkErrs {
		logger.Warn("walk error", zap.Error(walkErr))
		totals.Unreadable++
	}

	reports := make([]ScanReport, 0, len(jobs))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return reports, totals, err
		}

		report := scanJob(job, opts.Target, logger)
		totals.Files++
		totals.Bytes += report.Size
		if report.TargetExists {
			totals.TargetsExisting++
		}
		if report.ExifTags > 0 {
			totals.WithMetadata++
		}
		if report.Err != nil {
			totals.Unreadable++
			logger.Debug("scan failed", zap.String("path", job.Path), zap.Error(report.Err))
		}
		reports = append(reports, report)
	}

	return reports, totals, nil
}

func scanJob(job Job, target convert.Format, logger *zap.Logger) ScanReport {
	report := ScanReport{Path: job.Display}

	if _, err := os.Stat(convert.TargetPath(job.Path, target)); err == nil {
		report.TargetExists = true
	}

	file, err := os.Open(job.Path)
	if err != nil {
		report.Err = err
		return report
	}
	defer file.Close()

	if info, err := file.Stat(); err == nil {
		report.Size = info.Size()
	}

	kind, err := imgutil.SniffReader(file)
	if err != nil {
		report.Err = err
		return report
	}
	report.Kind = kind
	if kind == imgutil.KindUnknown {
		report.Err = fmt.Errorf("unrecognized image format")
		return report
	}

	var hint imgutil.PNGInfo
	if kind == imgutil.KindPNG {
		hint, _ = imgutil.InspectPNG(file)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		report.Err = err
		return report
	}
	cfg, err := convert.DecodeConfig(kind, file)
	if err != nil {
		report.Err = err
		return report
	}
	report.Width = cfg.Width
	report.Height = cfg.Height
	report.Mode = convert.ModeFromConfig(cfg, hint)

	// A damaged EXIF block does not stop the pixels from converting.
	analysis, err := analyzeExif(file)
	if err != nil {
		logger.Warn("exif unreadable", zap.String("path", job.Path), zap.Error(err))
		return report
	}
	report.ExifTags = analysis.Tags
	report.Metadata = analysis.categories()

	return report
}
