package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/aerofit-cli/internal/analysis"
)

var (
	probEvent string
	probGiven string
	probLoad  loadFlags
)

var probCmd = &cobra.Command{
	Use:   "prob [file]",
	Short: "Compute P(event | given) or the marginal P(event)",
	Example: `  aerofit prob aerofit.csv --event Product=KP781 --given Gender=Female
  aerofit prob aerofit.csv --event AgeBucket=25-34`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventDim, event, err := parseAssignment("--event", probEvent)
		if err != nil {
			return err
		}
		path, err := dataPath(args)
		if err != nil {
			return err
		}
		t, err := loadTable(path, &probLoad)
		if err != nil {
			return err
		}
		defer t.Release()
		out := cmd.OutOrStdout()

		if probGiven == "" {
			d, err := analysis.NewDimension(t, eventDim)
			if err != nil {
				return err
			}
			if d.Index(event) < 0 {
				return fmt.Errorf("%s=%q: %w", d.Name, event, analysis.ErrUnknownCategory)
			}
			for _, f := range analysis.Marginal(d) {
				if strings.EqualFold(f.Value, event) {
					fmt.Fprintf(out, "P(%s=%s) = %.4f (%d/%d)\n", d.Name, f.Value, f.Proportion, f.Count, len(d.Assign))
				}
			}
			return nil
		}

		givenDim, given, err := parseAssignment("--given", probGiven)
		if err != nil {
			return err
		}
		ct, err := analysis.CrossTab(t, eventDim, givenDim)
		if err != nil {
			return err
		}
		p, err := ct.ProbRowGivenCol(event, given)
		if err != nil {
			return err
		}
		for _, c := range ct.Conditionals() {
			if strings.EqualFold(c.Event, event) && strings.EqualFold(c.Given, given) {
				fmt.Fprintf(out, "P(%s=%s | %s=%s) = %.4f (%d/%d)\n", c.EventDim, c.Event, c.GivenDim, c.Given, p, c.Joint, c.GivenCount)
			}
		}
		return nil
	},
}

func parseAssignment(flag, s string) (string, string, error) {
	dim, val, ok := strings.Cut(s, "=")
	dim, val = strings.TrimSpace(dim), strings.TrimSpace(val)
	if !ok || dim == "" || val == "" {
		return "", "", fmt.Errorf("invalid %s %q (want DIMENSION=VALUE)", flag, s)
	}
	return dim, val, nil
}

func init() {
	rootCmd.AddCommand(probCmd)
	probCmd.Flags().StringVar(&probEvent, "event", "", "event as DIMENSION=VALUE, e.g. Product=KP781")
	probCmd.Flags().StringVar(&probGiven, "given", "", "condition as DIMENSION=VALUE; omit for the marginal probability")
	_ = probCmd.MarkFlagRequired("event")
	probLoad.register(probCmd)
}
