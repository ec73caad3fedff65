package mcp

import (
	"net/http"

	"github.com/2beens/liftlog/internal/progression"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const ServerName = "liftlog-workouts"

// NewServer builds the MCP server with the workout tools. It is served at /mcp
// by the main service and over stdio by cmd/workouts_mcp. defaults are the
// configured progression params used when a tool call omits them.
func NewServer(schemaRepo SchemaRepo, store workoutsReader, advisor advisor, defaults progression.Params, version string) *mcp.Server {
	h := NewHandler(NewContextService(schemaRepo, store, advisor), defaults)
	if version == "" {
		version = "dev"
	}
	s := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_schema",
		Description: "Returns the DB schema of the workout tables (exercises, workout_logs): columns, types, nullable, default.",
	}, h.GetSchemaTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_exercises",
		Description: "Returns all exercises (id, name, createdAt) ordered by name, then id.",
	}, h.ListExercisesTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_exercise_logs",
		Description: "Returns the workout logs of one exercise, oldest first. Arg: exercise_id.",
	}, h.GetExerciseLogsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_logs",
		Description: "Returns all workout logs, most recent first. Optional: from_date, to_date (YYYY-MM-DD).",
	}, h.GetWorkoutLogsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_recommendations",
		Description: "Returns the next recommended weight per exercise. A weight increase is suggested when the last min_sessions sessions all reached 8 reps, otherwise the last weight is kept. Optional: exercise_id, base_increase, max_increase, min_sessions.",
	}, h.GetRecommendationsTool())

	return s
}

// NewHTTPHandler serves s over the streamable HTTP transport.
func NewHTTPHandler(s *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s
	}, nil)
}
