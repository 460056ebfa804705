package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/aerofit-cli/internal/analysis"
)

var (
	ctRows      string
	ctCols      string
	ctNormalize string
	ctLoad      loadFlags
)

var crosstabCmd = &cobra.Command{
	Use:   "crosstab [file]",
	Short: "Print the contingency table of two dimensions",
	Long: `Crosstab counts records by the joint categories of two dimensions.

Dimensions: ` + strings.Join(analysis.DimensionNames, ", ") + `.
--normalize row|col|joint prints shares instead of counts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		norm, err := analysis.ParseNormalization(ctNormalize)
		if err != nil {
			return err
		}
		path, err := dataPath(args)
		if err != nil {
			return err
		}
		t, err := loadTable(path, &ctLoad)
		if err != nil {
			return err
		}
		defer t.Release()
		ct, err := analysis.CrossTab(t, ctRows, ctCols)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ct.Markdown(norm))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(crosstabCmd)
	crosstabCmd.Flags().StringVar(&ctRows, "rows", "Product", "row dimension")
	crosstabCmd.Flags().StringVar(&ctCols, "cols", "Gender", "column dimension")
	crosstabCmd.Flags().StringVar(&ctNormalize, "normalize", "none", "none|row|col|joint")
	ctLoad.register(crosstabCmd)
}
