package cli

import (
	"github.com/spf13/cobra"

	"github.com/sky-flux/flux-ffi/internal/engine"
	"github.com/sky-flux/flux-ffi/internal/handle"
)

func newNextCmd(a *app) *cobra.Command {
	var (
		params     []float32
		stability  float32
		difficulty float32
		retention  float32
		days       uint32
	)
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the state and interval reached by each rating",
		Long: "Show the state and interval reached by each rating. Without --stability and\n" +
			"--difficulty the item is treated as never reviewed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.rt.EngineNew(params)
			if err != nil {
				return check("engine", err)
			}
			defer a.rt.EngineFree(e)

			ms := handle.Nil
			if cmd.Flags().Changed("stability") || cmd.Flags().Changed("difficulty") {
				ms, err = a.rt.MemoryStateNew(stability, difficulty)
				if err != nil {
					return check("memory state", err)
				}
				defer a.rt.MemoryStateFree(ms)
			}

			ns, err := a.rt.NextStates(e, ms, retention, days)
			if err != nil {
				return check("next states", err)
			}
			defer a.rt.NextStatesFree(ns)

			var view nextView
			for _, r := range engine.Ratings {
				s, err := a.rt.NextStatesGet(ns, uint32(r))
				if err != nil {
					return check("next states", err)
				}
				view.set(r, s)
			}
			return a.print(cmd, view)
		},
	}
	cmd.Flags().Float32SliceVarP(&params, "params", "p", nil, "Parameters (17, 19 or 21 values; default FSRS-6)")
	cmd.Flags().Float32VarP(&stability, "stability", "s", 0, "Prior stability")
	cmd.Flags().Float32VarP(&difficulty, "difficulty", "d", 5, "Prior difficulty")
	cmd.Flags().Float32VarP(&retention, "retention", "r", 0.9, "Desired retention in (0, 1)")
	cmd.Flags().Uint32Var(&days, "days", 0, "Days elapsed since the last review")
	return cmd
}
