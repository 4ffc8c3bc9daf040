package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"imgswap/internal/config"
	"imgswap/internal/convert"
	"imgswap/internal/processor"
	"imgswap/internal/tui"
	"imgswap/pkg/imgutil"
	"imgswap/pkg/logger"
)

var (
	scanTarget    string
	scanRecursive bool
	scanLogFile   string
)

var scanCmd = &cobra.Command{
	Use:   "scan [flags] [folder]",
	Short: "List the files a conversion would touch without writing anything",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := convert.ParseFormat(scanTarget)
		if err != nil {
			return err
		}

		root := "."
		if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
			root = strings.Trim(args[0], "\" ")
		}

		recursive := scanRecursive
		if !cmd.Flags().Changed(config.FlagRecursive) {
			recursive = target == convert.FormatJPEG
		}

		log, err := logger.New(scanLogFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer func() { _ = log.Sync() }()

		reports, totals, err := processor.Scan(cmd.Context(), root, processor.Options{
			Target:    target,
			Recursive: recursive,
			Logger:    log,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printScanReports(out, reports, target)

		fmt.Fprintln(out, tui.RenderSummary("SCAN SUMMARY", []tui.SummaryRow{
			{Label: "Candidate files", Value: fmt.Sprintf("%d", totals.Files)},
			{Label: "Total size", Value: imgutil.FormatSize(totals.Bytes)},
			{Label: "Targets already present", Value: fmt.Sprintf("%d", totals.TargetsExisting)},
			{Label: "Files with EXIF metadata", Value: fmt.Sprintf("%d", totals.WithMetadata)},
			{Label: "Unreadable", Value: fmt.Sprintf("%d", totals.Unreadable)},
		}))
		return nil
	},
}

func printScanReports(out io.Writer, reports []processor.ScanReport, target convert.Format) {
	for i, report := range reports {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s\n", scanFileStyle.Render(report.Path))

		if report.Err != nil {
			fmt.Fprintf(out, "  %s %s\n", scanBulletStyle.Render("-"), scanErrorStyle.Render(report.Err.Error()))
			continue
		}

		fmt.Fprintf(out, "  %s %s\n", scanBulletStyle.Render("-"), scanValueStyle.Render(fmt.Sprintf(
			"%s %s %dx%d, %s", report.Kind, report.Mode, report.Width, report.Height, imgutil.FormatSize(report.Size),
		)))
		if report.Mode.HasAlpha() && !target.SupportsAlpha() {
			fmt.Fprintf(out, "  %s %s\n", scanBulletStyle.Render("-"), scanDimStyle.Render("transparency will be flattened onto white"))
		}
		if report.TargetExists {
			fmt.Fprintf(out, "  %s %s\n", scanBulletStyle.Render("-"),
				scanWarnStyle.Render(fmt.Sprintf("%s already exists, will be skipped", convert.TargetPath(report.Path, target))))
		}
		if len(report.Metadata) > 0 {
			fmt.Fprintf(out, "  %s %s\n", scanCategoryStyle.Render("EXIF dropped on conversion:"),
				scanValueStyle.Render(strings.Join(report.Metadata, ", ")))
		}
	}
}

var (
	scanFileStyle     = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	scanCategoryStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	scanValueStyle    = lipgloss.NewStyle().Foreground(tui.ColorInk)
	scanDimStyle      = lipgloss.NewStyle().Foreground(tui.ColorDim)
	scanBulletStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
	scanWarnStyle     = lipgloss.NewStyle().Foreground(tui.ColorWarn)
	scanErrorStyle    = lipgloss.NewStyle().Foreground(tui.ColorError)
)

func init() {
	scanCmd.Flags().StringVarP(&scanTarget, "to", "t", "webp", "target format to plan for (webp or jpg)")
	scanCmd.Flags().BoolVarP(&scanRecursive, config.FlagRecursive, "r", false, "walk the whole tree (default: on for jpg, off for webp)")
	scanCmd.Flags().StringVar(&scanLogFile, config.FlagLogFile, "", "write a JSON log to this file")

	rootCmd.AddCommand(scanCmd)
}
