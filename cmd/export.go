package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/aerofit-cli/internal/analysis"
	"github.com/KaramelBytes/aerofit-cli/internal/artifact"
	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
	"github.com/KaramelBytes/aerofit-cli/internal/utils"
)

var (
	expOutput string
	expOutDir string
	expLoad   loadFlags
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the dataset with its derived bucket columns as CSV or Arrow",
	Long: "Export writes the canonical columns plus AgeBucket, UsageCategory, IncomeBucket and MilesCategory.\n" +
		"The format follows the --output extension: .csv, or .arrow/.feather/.ipc for Arrow IPC.\n" +
		"With --out-dir the file goes into that run directory and is recorded in its run.json.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := dataPath(args)
		if err != nil {
			return err
		}
		t, err := loadTable(path, &expLoad)
		if err != nil {
			return err
		}
		defer t.Release()
		extra, err := analysis.DerivedColumns(t)
		if err != nil {
			return err
		}
		data, err := encodeExport(t, extra, expOutput)
		if err != nil {
			return err
		}

		dest := expOutput
		if expOutDir != "" {
			run, err := openRun(path, expOutDir, t.Len())
			if err != nil {
				return err
			}
			if dest, err = run.WriteFile(filepath.Base(expOutput), data, artifact.KindDataset, "Processed dataset with derived columns"); err != nil {
				return err
			}
			if err := run.Save(); err != nil {
				return fmt.Errorf("save run manifest: %w", err)
			}
		} else {
			if err := utils.EnsureDir(filepath.Dir(dest)); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if err := utils.SafeWriteFile(dest, data); err != nil {
				return err
			}
		}
		log.Debug("dataset exported", zap.String("dest", dest), zap.Int("records", t.Len()))
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d records to %s\n", t.Len(), dest)
		return nil
	},
}

// encodeExport picks the writer from the extension of name.
func encodeExport(t *dataset.Table, extra []dataset.ExtraColumn, name string) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		if err := dataset.WriteCSV(&buf, t, extra); err != nil {
			return nil, err
		}
	case ".arrow", ".feather", ".ipc":
		if err := dataset.WriteArrow(&buf, t, extra); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported export format %q (use .csv, .arrow, .feather or .ipc)", filepath.Ext(name))
	}
	return buf.Bytes(), nil
}

// openRun reuses the run at dir or starts a new one there.
func openRun(source, dir string, rows int) (*artifact.Run, error) {
	run, err := artifact.LoadRun(dir)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	run = artifact.NewRun(source, dir)
	run.Rows = rows
	return run, nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&expOutput, "output", "o", "processed_aerofit.csv", "output file; the extension selects csv or arrow")
	exportCmd.Flags().StringVar(&expOutDir, "out-dir", "", "write into this run directory and record it in run.json")
	expLoad.register(exportCmd)
}
