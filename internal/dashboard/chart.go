package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/2beens/liftlog/internal/workouts"
)

const chartDotWidth = 4.0

// Chart is a rendered SVG line chart of weight over time.
type Chart struct {
	Title string
	SVG   template.HTML
}

// RenderChart draws logs, sorted by date, as a width x height SVG.
// It returns nil when there is nothing to draw.
func RenderChart(logs []workouts.WorkoutLog, width, height int) (*Chart, error) {
	if len(logs) == 0 {
		return nil, nil
	}

	dates := make([]time.Time, 0, len(logs))
	weights := make([]float64, 0, len(logs))
	minW, maxW := logs[0].Weight, logs[0].Weight
	for _, l := range logs {
		dates = append(dates, l.Date)
		weights = append(weights, l.Weight)
		minW = math.Min(minW, l.Weight)
		maxW = math.Max(maxW, l.Weight)
	}

	// go-chart refuses zero-width ranges
	first, last := logs[0].Date, logs[len(logs)-1].Date
	if !last.After(first) {
		first, last = first.AddDate(0, 0, -1), last.AddDate(0, 0, 1)
	}
	if minW == maxW {
		minW = math.Max(0, minW-1)
		maxW = minW + 2
	}

	// the title stays out of the SVG, exercise names are user input
	graph := chart.Chart{
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: dateTick,
			Range: &chart.ContinuousRange{
				Min: chart.TimeToFloat64(first),
				Max: chart.TimeToFloat64(last),
			},
		},
		YAxis: chart.YAxis{
			Name:           "Weight (kg)",
			ValueFormatter: weightTick,
			Range:          &chart.ContinuousRange{Min: minW, Max: maxW},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Weight",
				XValues: dates,
				YValues: weights,
				Style: chart.Style{
					StrokeWidth: 2,
					DotWidth:    chartDotWidth,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	return &Chart{
		Title: fmt.Sprintf("Weight Progression for %s", logs[0].ExerciseName),
		SVG:   template.HTML(buf.String()),
	}, nil
}

func dateTick(v interface{}) string {
	if f, ok := v.(float64); ok {
		return time.Unix(0, int64(f)).UTC().Format(workouts.DateLayout)
	}
	return ""
}

func weightTick(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.1f", f)
	}
	return ""
}
