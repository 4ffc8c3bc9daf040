package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"imgswap/internal/config"
	"imgswap/internal/convert"
	"imgswap/internal/processor"
	"imgswap/internal/tui"
	"imgswap/pkg/imgutil"
	"imgswap/pkg/logger"
)

type convertDefaults struct {
	quality   int
	recursive bool
}

func newConvertCommand(target convert.Format, short string, defaults convertDefaults) *cobra.Command {
	cmd := &cobra.Command{
		Use:   target.String() + " [flags] [folder]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), target, args)
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().IntP(config.FlagQuality, "q", defaults.quality, "output quality (1-100)")
	cmd.Flags().BoolP(config.FlagDeleteOriginals, "d", false, "delete originals after a successful conversion")
	cmd.Flags().BoolP(config.FlagRecursive, "r", defaults.recursive, "walk the whole tree instead of one level of subfolders")
	cmd.Flags().Bool(config.FlagPlain, false, "print plain status lines instead of the live view")
	cmd.Flags().String(config.FlagLogFile, "", "write a JSON log of every conversion to this file")

	return cmd
}

func runConvert(parent context.Context, out io.Writer, cfg config.Config) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	log, err := logger.New(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = log.Sync() }()

	updates := make(chan processor.ProgressUpdate, 64)

	var view func() error
	if !cfg.Plain && isTerminal(out) {
		title := fmt.Sprintf("imgswap → %s (quality %d)", cfg.Target, cfg.Quality)
		view = liveView(title, updates, cancel, tea.WithOutput(out))
	}
	uiDone := startRenderer(out, updates, view, log)

	summary, err := processor.Run(ctx, cfg.Root, processor.Options{
		Target:          cfg.Target,
		Quality:         cfg.Quality,
		DeleteOriginals: cfg.DeleteOriginals,
		Recursive:       cfg.Recursive,
		Logger:          log,
	}, updates)

	close(updates)
	<-uiDone
	if err != nil {
		return err
	}

	fmt.Fprintln(out, tui.RenderSummary("CONVERSION SUMMARY", summaryRows(summary, cfg)))
	if abs, absErr := filepath.Abs(cfg.Root); absErr == nil {
		fmt.Fprintf(out, "Target folder: %s\n", abs)
	}
	if !cfg.DeleteOriginals && summary.Converted > 0 {
		fmt.Fprintln(out, "Note: originals are kept unless --delete-originals is used.")
	}
	return nil
}

// startRenderer consumes updates until the run closes the channel. When the
// live view ends early the plain printer takes over the rest of the stream,
// so the run never blocks on a full channel.
func startRenderer(out io.Writer, updates <-chan processor.ProgressUpdate, view func() error, log *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if view != nil {
			if err := view(); err != nil {
				log.Warn("live view stopped", zap.Error(err))
			}
		}
		tui.PrintPlain(out, updates)
	}()
	return done
}

func liveView(title string, updates <-chan processor.ProgressUpdate, cancel func(), opts ...tea.ProgramOption) func() error {
	program := tea.NewProgram(tui.NewModel(title, updates, cancel), opts...)
	return func() error {
		_, err := program.Run()
		return err
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func summaryRows(summary processor.Summary, cfg config.Config) []tui.SummaryRow {
	rows := []tui.SummaryRow{
		{Label: "Total files found", Value: fmt.Sprintf("%d", summary.Found)},
		{Label: "Successfully converted", Value: fmt.Sprintf("%d", summary.Converted)},
		{Label: "Already existed (skipped)", Value: fmt.Sprintf("%d", summary.Skipped)},
		{Label: "Errors", Value: fmt.Sprintf("%d", summary.Errors)},
	}

	if cfg.DeleteOriginals {
		rows = append(rows,
			tui.SummaryRow{Label: "Originals deleted", Value: fmt.Sprintf("%d", summary.Deleted)},
			tui.SummaryRow{Label: "Delete failures", Value: fmt.Sprintf("%d", summary.DeleteErrors)},
		)
	}

	rows = append(rows,
		tui.SummaryRow{Label: "Time taken", Value: fmt.Sprintf("%.1f seconds", summary.Elapsed.Seconds())},
	)

	if summary.Converted > 0 {
		avg := summary.Elapsed / time.Duration(summary.Converted)
		rows = append(rows,
			tui.SummaryRow{Label: "Average per file", Value: fmt.Sprintf("%.2f seconds", avg.Seconds())},
			tui.SummaryRow{Label: "Input size", Value: imgutil.FormatSize(summary.BytesIn)},
			tui.SummaryRow{Label: "Output size", Value: imgutil.FormatSize(summary.BytesOut)},
			tui.SummaryRow{Label: "Quality", Value: fmt.Sprintf("%d%%", cfg.Quality)},
		)
	}

	return rows
}

var webpCmd = newConvertCommand(convert.FormatWEBP,
	"Convert images in each subfolder to WEBP, keeping transparency",
	convertDefaults{quality: 80, recursive: false})

var jpgCmd = newConvertCommand(convert.FormatJPEG,
	"Convert WEBP and PNG files to JPG, flattening transparency onto white",
	convertDefaults{quality: 95, recursive: true})

func init() {
	rootCmd.AddCommand(webpCmd, jpgCmd)
}
