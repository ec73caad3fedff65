package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/2beens/liftlog/internal/progression"
	"github.com/2beens/liftlog/internal/workouts"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler turns tool inputs into service calls and service results into tool results.
type Handler struct {
	service  contextService
	defaults progression.Params
}

// NewHandler returns a Handler whose get_recommendations tool falls back to
// defaults for every tuning value the caller leaves out.
func NewHandler(service contextService, defaults progression.Params) *Handler {
	return &Handler{
		service:  service,
		defaults: defaults,
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return textResult(string(raw))
}

type NoInput struct{}

func (h *Handler) GetSchemaTool() func(context.Context, *mcp.CallToolRequest, NoInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetSchema(ctx)
		if err != nil {
			return errorResult("Error fetching schema: " + err.Error()), nil, nil
		}
		return textResult(text), nil, nil
	}
}

func (h *Handler) ListExercisesTool() func(context.Context, *mcp.CallToolRequest, NoInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
		list, err := h.service.ListExercises(ctx)
		if err != nil {
			return errorResult("Error listing exercises: " + err.Error()), nil, nil
		}
		return jsonResult(list), nil, nil
	}
}

type ExerciseLogsInput struct {
	ExerciseID int `json:"exercise_id" jsonschema:"Exercise id, as returned by list_exercises"`
}

func (h *Handler) GetExerciseLogsTool() func(context.Context, *mcp.CallToolRequest, ExerciseLogsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ExerciseLogsInput) (*mcp.CallToolResult, any, error) {
		if in.ExerciseID <= 0 {
			return errorResult("Invalid exercise_id: must be a positive number"), nil, nil
		}
		logs, err := h.service.ListExerciseLogs(ctx, in.ExerciseID)
		if err != nil {
			return errorResult("Error listing exercise logs: " + err.Error()), nil, nil
		}
		return jsonResult(logs), nil, nil
	}
}

type WorkoutLogsInput struct {
	FromDate string `json:"from_date,omitempty" jsonschema:"Start date (YYYY-MM-DD), inclusive"`
	ToDate   string `json:"to_date,omitempty" jsonschema:"End date (YYYY-MM-DD), inclusive"`
}

func (h *Handler) GetWorkoutLogsTool() func(context.Context, *mcp.CallToolRequest, WorkoutLogsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in WorkoutLogsInput) (*mcp.CallToolResult, any, error) {
		var from, to *time.Time
		if in.FromDate != "" {
			t, err := time.Parse(workouts.DateLayout, in.FromDate)
			if err != nil {
				return errorResult("Invalid from_date: use YYYY-MM-DD"), nil, nil
			}
			from = &t
		}
		if in.ToDate != "" {
			t, err := time.Parse(workouts.DateLayout, in.ToDate)
			if err != nil {
				return errorResult("Invalid to_date: use YYYY-MM-DD"), nil, nil
			}
			to = &t
		}

		logs, err := h.service.ListLogs(ctx, from, to)
		if err != nil {
			return errorResult("Error listing workout logs: " + err.Error()), nil, nil
		}
		return jsonResult(logs), nil, nil
	}
}

type RecommendationsInput struct {
	ExerciseID   int     `json:"exercise_id,omitempty" jsonschema:"Only this exercise; all exercises when omitted"`
	BaseIncrease float64 `json:"base_increase,omitempty" jsonschema:"Base increase in percent of the last weight (1-5); server default when omitted"`
	MaxIncrease  float64 `json:"max_increase,omitempty" jsonschema:"Maximum increase in kg (0.5-10); server default when omitted"`
	MinSessions  int     `json:"min_sessions,omitempty" jsonschema:"Recent sessions that must reach the target reps (1-10); server default when omitted"`
}

func (in RecommendationsInput) params(defaults progression.Params) progression.Params {
	params := defaults
	if in.BaseIncrease != 0 {
		params.BaseIncreasePct = in.BaseIncrease
	}
	if in.MaxIncrease != 0 {
		params.MaxIncreaseKg = in.MaxIncrease
	}
	if in.MinSessions != 0 {
		params.MinSessions = in.MinSessions
	}
	return params
}

func (h *Handler) GetRecommendationsTool() func(context.Context, *mcp.CallToolRequest, RecommendationsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RecommendationsInput) (*mcp.CallToolResult, any, error) {
		if in.ExerciseID < 0 {
			return errorResult("Invalid exercise_id: must be a positive number"), nil, nil
		}
		params := in.params(h.defaults)
		if err := params.Validate(); err != nil {
			return errorResult("Invalid parameters: " + err.Error()), nil, nil
		}

		recs, err := h.service.Recommendations(ctx, in.ExerciseID, params)
		if errors.Is(err, workouts.ErrExerciseNotFound) {
			return errorResult("Exercise not found"), nil, nil
		}
		if err != nil {
			return errorResult("Error computing recommendations: " + err.Error()), nil, nil
		}
		return jsonResult(recs), nil, nil
	}
}
