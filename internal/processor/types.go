package processor

import (
	"time"

	"go.uber.org/zap"

	"imgswap/internal/convert"
	"imgswap/pkg/imgutil"
)

type Options struct {
	Target          convert.Format
	Quality         int
	DeleteOriginals bool
	// Recursive walks the whole tree. Otherwise only files exactly one
	// folder below the root are considered.
	Recursive bool
	Logger    *zap.Logger
}

type Job struct {
	Path    string
	RelPath string
	Display string
}

// Summary is the run-scoped tally returned by Run.
type Summary struct {
	Found        int
	Converted    int
	Skipped      int
	Errors       int
	Deleted      int
	DeleteErrors int
	BytesIn      int64
	BytesOut     int64
	Elapsed      time.Duration
}

type ScanReport struct {
	Path         string
	Kind         imgutil.Kind
	Mode         convert.ModeInfo
	Width        int
	Height       int
	Size         int64
	TargetExists bool
	ExifTags     int
	Metadata     []string
	Err          error
}

type ScanTotals struct {
	Files           int
	Bytes           int64
	TargetsExisting int
	WithMetadata    int
	Unreadable      int
}

// Level tags a status line so renderers can style it.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

type ProgressUpdate struct {
	TotalDelta      int
	ProcessedDelta  int
	ConvertedDelta  int
	SkippedDelta    int
	ErrorDelta      int
	DeletedDelta    int
	BytesSavedDelta int64
	Line            string
	Level           Level
}
