package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/aerofit-cli/internal/analysis"
)

var (
	outMultiplier float64
	outProduct    string
	outColumn     string
	outIDs        bool
	outLoad       loadFlags
)

var outliersCmd = &cobra.Command{
	Use:   "outliers [file]",
	Short: "Flag values outside the IQR fences per product and numeric column",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k := outMultiplier
		if k == 0 {
			k = settings().IQRMultiplier
		}
		path, err := dataPath(args)
		if err != nil {
			return err
		}
		t, err := loadTable(path, &outLoad)
		if err != nil {
			return err
		}
		defer t.Release()
		rep, err := analysis.DetectOutliers(t, k)
		if err != nil {
			return err
		}
		sets := rep.Filter(outProduct, outColumn)
		if len(sets) == 0 {
			return fmt.Errorf("no outlier sets match product %q column %q", outProduct, outColumn)
		}
		fmt.Fprint(cmd.OutOrStdout(), rep.Markdown(sets, outIDs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(outliersCmd)
	outliersCmd.Flags().Float64Var(&outMultiplier, "multiplier", 0, "IQR fence multiplier (config iqr_multiplier if omitted)")
	outliersCmd.Flags().StringVar(&outProduct, "product", "", "only this product")
	outliersCmd.Flags().StringVar(&outColumn, "column", "", "only this numeric column")
	outliersCmd.Flags().BoolVar(&outIDs, "ids", true, "list flagged record ids")
	outLoad.register(outliersCmd)
}
