package processor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"imgswap/internal/convert"
)

// Run converts every candidate under root sequentially and returns the
// tally. Only a missing or unreadable root is an error; per-file problems
// are counted and reported through updates.
func Run(ctx context.Context, root string, opts Options, updates chan<- ProgressUpdate) (Summary, error) {
	started := time.Now()
	summary := Summary{}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	send := func(u ProgressUpdate) {
		if updates != nil {
			updates <- u
		}
	}

	absRoot, err := resolveRoot(root)
	if err != nil {
		return summary, err
	}

	jobs, walkErrs := collectJobs(absRoot, opts)
	for _, walkErr := range walkErrs {
		summary.Errors++
		logger.Warn("walk error", zap.Error(walkErr))
		send(ProgressUpdate{ErrorDelta: 1, Line: walkErr.Error(), Level: LevelError})
	}

	summary.Found = len(jobs)
	logger.Info("starting batch",
		zap.String("root", absRoot),
		zap.Stringer("target", opts.Target),
		zap.Int("quality", opts.Quality),
		zap.Int("files", len(jobs)),
	)
	send(ProgressUpdate{TotalDelta: len(jobs)})

	conv := convert.NewConverter(logger)
	var converted []convert.Result

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}

		res := conv.Convert(convert.Request{Source: job.Path, Target: opts.Target, Quality: opts.Quality})
		update := ProgressUpdate{ProcessedDelta: 1}

		switch res.Status {
		case convert.StatusConverted:
			summary.Converted++
			summary.BytesIn += res.SourceSize
			summary.BytesOut += res.OutputSize
			converted = append(converted, res)
			update.ConvertedDelta = 1
			update.BytesSavedDelta = res.SourceSize - res.OutputSize
			update.Level = LevelSuccess
			update.Line = fmt.Sprintf("[%s] %s → %s", res.Mode, job.Display, filepath.Base(res.Output))
		case convert.StatusSkipped:
			summary.Skipped++
			update.SkippedDelta = 1
			update.Level = LevelWarn
			update.Line = skipLine(res, job, opts.Target)
		default:
			summary.Errors++
			update.ErrorDelta = 1
			update.Level = LevelError
			update.Line = fmt.Sprintf("Error converting %s: %v", job.Display, res.Err)
		}
		send(update)
	}

	if opts.DeleteOriginals {
		deleteOriginals(converted, absRoot, &summary, logger, send)
	}

	summary.Elapsed = time.Since(started)

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return summary, err
	}

	return summary, nil
}

func resolveRoot(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("root folder %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root folder %q is not a directory", root)
	}
	return filepath.Abs(root)
}

// collectJobs lists candidates up front so the total is known before any
// conversion starts. Unreadable subdirectories are reported, not fatal.
func collectJobs(absRoot string, opts Options) ([]Job, []error) {
	var jobs []Job
	var walkErrs []error

	exts := opts.Target.SourceExts()

	fsys := os.DirFS(absRoot)
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == "." {
				return walkErr
			}
			walkErrs = append(walkErrs, fmt.Errorf("cannot read %s: %w", path, walkErr))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		depth := strings.Count(path, "/")
		if d.IsDir() {
			if !opts.Recursive && path != "." && depth >= 1 {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !opts.Recursive && depth != 1 {
			return nil
		}
		if !hasExt(path, exts) || opts.Target.HasExt(path) {
			return nil
		}

		jobs = append(jobs, Job{
			Path:    filepath.Join(absRoot, filepath.FromSlash(path)),
			RelPath: path,
			Display: path,
		})
		return nil
	})
	if err != nil {
		walkErrs = append(walkErrs, fmt.Errorf("cannot read %s: %w", absRoot, err))
	}

	return jobs, walkErrs
}

// deleteOriginals removes sources whose converted output is still on disk.
func deleteOriginals(converted []convert.Result, absRoot string, summary *Summary, logger *zap.Logger, send func(ProgressUpdate)) {
	for _, res := range converted {
		if _, err := os.Stat(res.Output); err != nil {
			continue
		}

		display := displayPath(absRoot, res.Source)
		if err := os.Remove(res.Source); err != nil {
			summary.DeleteErrors++
			logger.Warn("delete failed", zap.String("source", res.Source), zap.Error(err))
			send(ProgressUpdate{Line: fmt.Sprintf("Could not delete %s: %v", display, err), Level: LevelError})
			continue
		}

		summary.Deleted++
		logger.Info("deleted original", zap.String("source", res.Source))
		send(ProgressUpdate{DeletedDelta: 1})
	}
}

func skipLine(res convert.Result, job Job, target convert.Format) string {
	if res.Reason == convert.ReasonTargetExists {
		return fmt.Sprintf("Skipping (%s exists): %s", strings.ToUpper(target.String()), job.Display)
	}
	return fmt.Sprintf("Skipping (%s): %s", res.Reason, job.Display)
}

func displayPath(absRoot, path string) string {
	if rel, err := filepath.Rel(absRoot, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
