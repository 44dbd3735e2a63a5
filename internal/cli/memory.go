package cli

import (
	"github.com/spf13/cobra"

	"github.com/sky-flux/flux-ffi/internal/abi"
	"github.com/sky-flux/flux-ffi/internal/handle"
)

func newMemoryCmd(a *app) *cobra.Command {
	var (
		params  []float32
		reviews []string
		days    uint32
	)
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Replay a review history into a memory state",
		Example: "  fsrs memory --review good:0 --review good:1 --review again:3\n" +
			"  fsrs memory -R 3:0,3:1,1:3 --days 5",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs := make([]abi.ReviewRecord, 0, len(reviews))
			for _, s := range reviews {
				r, err := parseReview(s)
				if err != nil {
					return err
				}
				recs = append(recs, r)
			}

			e, err := a.rt.EngineNew(params)
			if err != nil {
				return check("engine", err)
			}
			defer a.rt.EngineFree(e)

			it, err := a.rt.ItemNew(recs)
			if err != nil {
				return check("item", err)
			}
			defer a.rt.ItemFree(it)

			ms, err := a.rt.MemoryStateFromItem(e, it, handle.Nil)
			if err != nil {
				return check("memory state", err)
			}
			defer a.rt.MemoryStateFree(ms)

			m, err := a.rt.MemoryStateGet(ms)
			if err != nil {
				return check("memory state", err)
			}
			view := memoryView{Stability: m.Stability, Difficulty: m.Difficulty}
			if cmd.Flags().Changed("days") {
				r, err := a.rt.Retrievability(e, ms, days)
				if err != nil {
					return check("retrievability", err)
				}
				view.Retrievability = &r
			}
			return a.print(cmd, view)
		},
	}
	cmd.Flags().Float32SliceVarP(&params, "params", "p", nil, "Parameters (17, 19 or 21 values; default FSRS-6)")
	cmd.Flags().StringSliceVarP(&reviews, "review", "R", nil, "Review as rating:delta_t (repeatable)")
	cmd.Flags().Uint32Var(&days, "days", 0, "Also report retrievability this many days after the last review")
	_ = cmd.MarkFlagRequired("review")
	return cmd
}
