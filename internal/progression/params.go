package progression

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
)

const (
	MinBaseIncreasePct = 1.0
	MaxBaseIncreasePct = 5.0
	MinMaxIncreaseKg   = 0.5
	MaxMaxIncreaseKg   = 10.0
	MinMinSessions     = 1
	MaxMinSessions     = 10
)

// Params tune the progression. They live for one request and are never stored.
type Params struct {
	// BaseIncreasePct is the relative step, in percent of the last weight.
	BaseIncreasePct float64 `json:"baseIncreasePct"`
	// MaxIncreaseKg caps the step in kilograms.
	MaxIncreaseKg float64 `json:"maxIncreaseKg"`
	// MinSessions is how many recent sessions must hit TargetReps.
	MinSessions int `json:"minSessions"`
}

var DefaultParams = Params{
	BaseIncreasePct: 2.5,
	MaxIncreaseKg:   5.0,
	MinSessions:     3,
}

type ParamError struct {
	Param   string
	Message string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Message)
}

func (p Params) Validate() error {
	if !isFinite(p.BaseIncreasePct) || p.BaseIncreasePct < MinBaseIncreasePct || p.BaseIncreasePct > MaxBaseIncreasePct {
		return &ParamError{
			Param:   "base_increase",
			Message: fmt.Sprintf("must be between %.1f and %.1f percent", MinBaseIncreasePct, MaxBaseIncreasePct),
		}
	}
	if !isFinite(p.MaxIncreaseKg) || p.MaxIncreaseKg < MinMaxIncreaseKg || p.MaxIncreaseKg > MaxMaxIncreaseKg {
		return &ParamError{
			Param:   "max_increase",
			Message: fmt.Sprintf("must be between %.1f and %.1f kg", MinMaxIncreaseKg, MaxMaxIncreaseKg),
		}
	}
	if p.MinSessions < MinMinSessions || p.MinSessions > MaxMinSessions {
		return &ParamError{
			Param:   "min_sessions",
			Message: fmt.Sprintf("must be between %d and %d", MinMinSessions, MaxMinSessions),
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ParamsFromQuery overrides defaults with base_increase, max_increase and
// min_sessions query values and validates the result.
func ParamsFromQuery(q url.Values, defaults Params) (Params, error) {
	p := defaults

	if v := q.Get("base_increase"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return defaults, &ParamError{Param: "base_increase", Message: "not a number"}
		}
		p.BaseIncreasePct = f
	}
	if v := q.Get("max_increase"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return defaults, &ParamError{Param: "max_increase", Message: "not a number"}
		}
		p.MaxIncreaseKg = f
	}
	if v := q.Get("min_sessions"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return defaults, &ParamError{Param: "min_sessions", Message: "not an integer"}
		}
		p.MinSessions = n
	}

	if err := p.Validate(); err != nil {
		return defaults, err
	}
	return p, nil
}
