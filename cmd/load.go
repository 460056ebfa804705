package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

// loadFlags are the input options shared by every command that reads a dataset.
type loadFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	sheetName  string
	sheetIndex int
}

func (lf *loadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&lf.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (by extension if omitted)")
	cmd.Flags().StringVar(&lf.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (config decimal_separator if omitted)")
	cmd.Flags().StringVar(&lf.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (config thousands_separator if omitted)")
	cmd.Flags().StringVar(&lf.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	cmd.Flags().IntVar(&lf.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func (lf *loadFlags) options() (dataset.LoadOptions, error) {
	opt := dataset.DefaultLoadOptions()
	switch lf.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", lf.delimiter)
	}
	dec := lf.decimal
	if dec == "" {
		dec = settings().DecimalSeparator
	}
	switch strings.ToLower(strings.TrimSpace(dec)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot", "":
		opt.DecimalSeparator = '.'
	default:
		return opt, fmt.Errorf("unsupported decimal separator: %s (use '.'|'comma')", dec)
	}
	thou := lf.thousands
	if thou == "" {
		thou = settings().ThousandsSeparator
	}
	switch strings.ToLower(thou) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported thousands separator: %s (use ','|'.'|'space')", thou)
	}
	opt.SheetName = lf.sheetName
	opt.SheetIndex = lf.sheetIndex
	return opt, nil
}

// dataPath picks the file argument, falling back to the configured data_path.
func dataPath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if p := settings().DataPath; p != "" {
		return p, nil
	}
	return "", errors.New("no dataset given: pass a file or set data_path (aerofit config set data_path <file>)")
}

func loadTable(path string, lf *loadFlags) (*dataset.Table, error) {
	opt, err := lf.options()
	if err != nil {
		return nil, err
	}
	t, err := dataset.Load(path, opt)
	if err != nil {
		log.Error("load failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	log.Info("loaded dataset", zap.String("path", path), zap.Int("records", t.Len()))
	return t, nil
}
