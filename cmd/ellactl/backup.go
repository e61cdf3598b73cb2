package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ella/internal/service"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the database to a JSON file",
	Example: `  ellactl export
  ellactl export --output mybackup.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputPath, _ := cmd.Flags().GetString("output")
		if outputPath == "" {
			outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
		}

		// Ensure directory exists
		if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create backup file: %w", err)
		}

		e.logger.Info("Exporting database", zap.String("file", outputPath))
		data, err := service.NewBackupService(e.db, e.logger).Export(cmd.Context(), f)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		info, _ := os.Stat(outputPath)
		e.logger.Info("Export complete",
			zap.Int("users", len(data.Users)),
			zap.Int("books", len(data.Books)),
			zap.Int("sessions", len(data.Sessions)),
			zap.String("size", fmt.Sprintf("%.2f MB", float64(info.Size())/1024/1024)))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a JSON backup",
	Long: `Import a JSON backup in a single transaction.

Without --clear the backup is merged into the existing data and the import
fails if any record already exists. --clear deletes all data first.`,
	Example: `  ellactl import --input backup.json
  ellactl import --input backup.json --clear`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath, _ := cmd.Flags().GetString("input")
		clearData, _ := cmd.Flags().GetBool("clear")
		yes, _ := cmd.Flags().GetBool("yes")

		f, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("failed to open backup: %w", err)
		}
		defer f.Close()

		if clearData && !yes {
			fmt.Fprint(cmd.OutOrStdout(), "WARNING: This will delete all existing data. Type 'yes' to confirm: ")
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(answer) != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
				return nil
			}
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		e.logger.Info("Importing database", zap.String("file", inputPath), zap.Bool("clear", clearData))
		data, err := service.NewBackupService(e.db, e.logger).Import(cmd.Context(), f, clearData)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		e.logger.Info("Import complete",
			zap.String("exportedAt", data.ExportedAt.Format(time.RFC3339)),
			zap.Int("users", len(data.Users)),
			zap.Int("books", len(data.Books)),
			zap.Int("sessions", len(data.Sessions)))
		return nil
	},
}

func init() {
	exportCmd.Flags().String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importCmd.Flags().String("input", "", "Input file path")
	importCmd.Flags().Bool("clear", false, "Clear existing data before import (destructive)")
	importCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	importCmd.MarkFlagRequired("input")
}
