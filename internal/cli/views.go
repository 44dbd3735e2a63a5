package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sky-flux/flux-ffi/internal/abi"
	"github.com/sky-flux/flux-ffi/internal/engine"
)

type stateView struct {
	Stability  float32 `json:"stability" yaml:"stability"`
	Difficulty float32 `json:"difficulty" yaml:"difficulty"`
	Interval   float32 `json:"interval" yaml:"interval"`
}

type nextView struct {
	Again stateView `json:"again" yaml:"again"`
	Hard  stateView `json:"hard" yaml:"hard"`
	Good  stateView `json:"good" yaml:"good"`
	Easy  stateView `json:"easy" yaml:"easy"`
}

func (v *nextView) set(r engine.Rating, s abi.ItemState) {
	sv := stateView{
		Stability:  s.Memory.Stability,
		Difficulty: s.Memory.Difficulty,
		Interval:   s.Interval,
	}
	switch r {
	case engine.Again:
		v.Again = sv
	case engine.Hard:
		v.Hard = sv
	case engine.Good:
		v.Good = sv
	case engine.Easy:
		v.Easy = sv
	}
}

type memoryView struct {
	Stability      float32  `json:"stability" yaml:"stability"`
	Difficulty     float32  `json:"difficulty" yaml:"difficulty"`
	Retrievability *float32 `json:"retrievability,omitempty" yaml:"retrievability,omitempty"`
}

type paramsView struct {
	Items      int       `json:"items,omitempty" yaml:"items,omitempty"`
	Trained    *bool     `json:"trained,omitempty" yaml:"trained,omitempty"`
	Parameters []float32 `json:"parameters" yaml:"parameters,flow"`
}

// parseReview parses "rating:delta_t", where rating is 1-4 or a rating
// name such as "good".
func parseReview(s string) (abi.ReviewRecord, error) {
	name, delta, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return abi.ReviewRecord{}, fmt.Errorf("review %q: want rating:delta_t", s)
	}
	var r engine.Rating
	if err := r.UnmarshalText([]byte(name)); err != nil {
		return abi.ReviewRecord{}, fmt.Errorf("review %q: %w", s, err)
	}
	d, err := strconv.ParseUint(delta, 10, 32)
	if err != nil {
		return abi.ReviewRecord{}, fmt.Errorf("review %q: delta_t: %w", s, err)
	}
	return abi.ReviewRecord{Rating: uint32(r), DeltaT: uint32(d)}, nil
}
