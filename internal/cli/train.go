package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sky-flux/flux-ffi/internal/abi"
	"github.com/sky-flux/flux-ffi/internal/revlog"
)

func newTrainCmd(a *app) *cobra.Command {
	var (
		path      string
		params    []float32
		utcOffset time.Duration
		dayStart  time.Duration
	)
	defaults := revlog.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit parameters to a review log",
		Long: "Fit parameters to a review log in CSV form with the columns card_id,\n" +
			"review_time (Unix ms), review_rating (1-4) and review_state (0-3).\n" +
			"An empty parameter list means the log held too little usable data.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			items, err := revlog.Load(f, revlog.Options{UTCOffset: utcOffset, DayStart: dayStart})
			if err != nil {
				return err
			}
			a.log.Info("review log loaded", zap.String("path", path), zap.Int("items", len(items)))

			e, err := a.rt.EngineNew(params)
			if err != nil {
				return check("engine", err)
			}
			defer a.rt.EngineFree(e)

			handles := make([]abi.Handle, 0, len(items))
			defer func() { releaseAll(a.rt.ItemFree, handles) }()
			for _, it := range items {
				recs := make([]abi.ReviewRecord, len(it.Reviews))
				for i, r := range it.Reviews {
					recs[i] = abi.ReviewRecord{Rating: uint32(r.Rating), DeltaT: r.DeltaT}
				}
				h, err := a.rt.ItemNew(recs)
				if err != nil {
					return check("item", err)
				}
				handles = append(handles, h)
			}

			start := time.Now()
			p, err := a.rt.ComputeParameters(e, handles)
			if err != nil {
				return check("compute parameters", err)
			}
			defer a.rt.ParametersFree(p)

			out, err := copyParameters(a.rt, p)
			if err != nil {
				return err
			}
			trained := len(out) > 0
			a.log.Info("training finished", zap.Bool("trained", trained), zap.Duration("took", time.Since(start)))
			return a.print(cmd, paramsView{Items: len(items), Trained: &trained, Parameters: out})
		},
	}
	cmd.Flags().StringVar(&path, "revlog", "", "Review log CSV file")
	cmd.Flags().Float32SliceVarP(&params, "params", "p", nil, "Starting parameters (default FSRS-6)")
	cmd.Flags().DurationVar(&utcOffset, "utc-offset", defaults.UTCOffset, "Learner timezone offset from UTC")
	cmd.Flags().DurationVar(&dayStart, "day-start", defaults.DayStart, "Local time at which a new day starts")
	_ = cmd.MarkFlagRequired("revlog")
	return cmd
}

func copyParameters(rt *abi.Runtime, p abi.Handle) ([]float32, error) {
	n, err := rt.ParametersLen(p)
	if err != nil {
		return nil, check("parameters", err)
	}
	out := make([]float32, n)
	if _, err := rt.ParametersCopy(p, out); err != nil {
		return nil, check("parameters", err)
	}
	return out, nil
}

// releaseAll frees handles in reverse order, ignoring errors.
func releaseAll(free func(abi.Handle) error, hs []abi.Handle) {
	for i := len(hs) - 1; i >= 0; i-- {
		_ = free(hs[i])
	}
}
