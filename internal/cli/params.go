package cli

import (
	"github.com/spf13/cobra"
)

func newParamsCmd(a *app) *cobra.Command {
	var params []float32
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print the effective 21 parameters",
		Long: "Print the effective 21 parameters. 17 (FSRS-4.5) and 19 (FSRS-5) value\n" +
			"vectors are migrated; without --params the FSRS-6 defaults are shown.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.rt.EngineNew(params)
			if err != nil {
				return check("engine", err)
			}
			defer a.rt.EngineFree(e)

			p, err := a.rt.EngineParameters(e)
			if err != nil {
				return check("parameters", err)
			}
			defer a.rt.ParametersFree(p)

			out, err := copyParameters(a.rt, p)
			if err != nil {
				return err
			}
			return a.print(cmd, paramsView{Parameters: out})
		},
	}
	cmd.Flags().Float32SliceVarP(&params, "params", "p", nil, "Parameters (17, 19 or 21 values)")
	return cmd
}
