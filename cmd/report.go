package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bloodlab/internal/logger"
	"bloodlab/internal/report"
	"bloodlab/internal/server"
)

var reportCmd = &cobra.Command{
	Use:   "report [text-file|-]",
	Short: "Render analysis text as a PDF report",
	Long: `Lay out analysis text as a clinical report and write it as an A4 PDF,
exactly as POST /generate_report would return it.

Lines containing "|" become table rows, lines starting with 1-7 or ending with
":" become headings, lines starting with "- " or "• " become bullets and blank
lines close an open table.

The report font is read from FONT_DIR/FONT_FILE (NanumGothic.ttf by default).
Without it a built-in font is used and Hangul will not display.`,
	Example: `  # Render a saved analysis
  bloodlab report analysis.txt

  # Full pipeline
  bloodlab ocr result.jpg | bloodlab analyze | bloodlab report -o report.pdf`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("output", "o", "", "Output PDF path (default: clinical_lab_report_<timestamp>.pdf)")
	reportCmd.Flags().Bool("stdout", false, "Write the PDF to stdout")
	reportCmd.Flags().Duration("timeout", 0, "Rendering timeout (default: ANALYSIS_TIMEOUT)")
}

func runReport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("report")

	outputPath, _ := cmd.Flags().GetString("output")
	toStdout, _ := cmd.Flags().GetBool("stdout")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = cfg.AnalysisTimeout
	}

	text, err := readTextInput(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text to render")
	}

	now := time.Now()
	if outputPath == "" && !toStdout {
		outputPath = now.Format(server.ReportFilenameLayout)
	}

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	blocks := report.Build(text, now)
	pdf, err := createRenderer(cfg, log).RenderContext(ctx, blocks)
	if err != nil {
		return handleCollaboratorError("report rendering", err, log)
	}

	data, err := io.ReadAll(pdf)
	if err != nil {
		return fmt.Errorf("failed to read rendered report: %w", err)
	}

	log.Info().
		Int("blocks", len(blocks)).
		Int("bytes", len(data)).
		Msg("Report rendered successfully")

	if toStdout {
		outputPath = ""
	}
	return writeOutput(data, outputPath, log)
}
