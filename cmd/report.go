/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mautops/deferral-gin/internal/container"
	"github.com/mautops/deferral-gin/internal/service"
	"github.com/spf13/cobra"
)

// reportCmd 离线导出已完成清单的报告
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a completed checklist report",
	Long: `Render the report of a checklist and write it to a local directory.
By default a PDF export is produced and recorded like an API export.
With --preview the HTML preview is written instead and nothing is recorded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		checklistID, _ := cmd.Flags().GetString("checklist")
		outDir, _ := cmd.Flags().GetString("out")
		preview, _ := cmd.Flags().GetBool("preview")
		if checklistID == "" {
			return fmt.Errorf("--checklist is required")
		}

		cfg, _, err := loadConfigFromFlags(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		file, err := renderReport(ctx, ctr.ReportService(), checklistID, preview)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(outDir, file.Filename)
		if err := os.WriteFile(path, file.Content, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

// renderReport 导出并立即用一次性令牌取回文件
func renderReport(ctx context.Context, reports service.ReportService, checklistID string, preview bool) (*service.ReportFile, error) {
	if preview {
		file, err := reports.Preview(ctx, checklistID)
		if err != nil {
			return nil, fmt.Errorf("failed to render preview: %w", err)
		}
		return file, nil
	}

	result, err := reports.Export(ctx, checklistID)
	if err != nil {
		return nil, fmt.Errorf("failed to export report: %w", err)
	}
	file, err := reports.Download(ctx, result.ExportID, result.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exported report: %w", err)
	}
	return file, nil
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("checklist", "", "Checklist ID")
	reportCmd.Flags().String("out", ".", "Output directory")
	reportCmd.Flags().Bool("preview", false, "Write the HTML preview instead of a PDF export")
}
