package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/aerofit-cli/internal/charts"
)

var (
	chDir    string
	chOnly   []string
	chList   bool
	chWidth  float64
	chHeight float64
	chLoad   loadFlags
)

var chartsCmd = &cobra.Command{
	Use:   "charts [file]",
	Short: "Render PNG charts of the dataset",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if chList {
			fmt.Fprintln(out, strings.Join(charts.Names(), "\n"))
			return nil
		}
		path, err := dataPath(args)
		if err != nil {
			return err
		}
		opt, err := reportOptions(0, 0, nil, -1)
		if err != nil {
			return err
		}
		t, rep, err := analyzeFile(path, &chLoad, opt)
		if err != nil {
			return err
		}
		defer t.Release()

		dir := chDir
		if dir == "" {
			dir = settings().FiguresDir
		}
		copt := charts.DefaultOptions()
		copt.Only = chOnly
		if chWidth > 0 {
			copt.Width = charts.Inches(chWidth)
		}
		if chHeight > 0 {
			copt.Height = charts.Inches(chHeight)
		}
		paths, err := charts.RenderAll(t, rep, dir, copt)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(out, "✓ Wrote %s\n", p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartsCmd)
	chartsCmd.Flags().StringVar(&chDir, "dir", "", "output directory (config figures_dir if omitted)")
	chartsCmd.Flags().StringSliceVar(&chOnly, "only", nil, "comma-separated chart names to render")
	chartsCmd.Flags().BoolVar(&chList, "list", false, "list chart names and exit")
	chartsCmd.Flags().Float64Var(&chWidth, "width", 0, "chart width in inches (default 8)")
	chartsCmd.Flags().Float64Var(&chHeight, "height", 0, "chart height in inches (default 5)")
	chLoad.register(chartsCmd)
}
