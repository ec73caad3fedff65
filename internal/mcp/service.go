package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/2beens/liftlog/internal/progression"
	"github.com/2beens/liftlog/internal/workouts"
)

type workoutsReader interface {
	ListExercises(ctx context.Context) ([]workouts.Exercise, error)
	ListLogs(ctx context.Context) ([]workouts.WorkoutLog, error)
	ListExerciseLogs(ctx context.Context, exerciseID int) ([]workouts.WorkoutLog, error)
}

type advisor interface {
	ForExercise(ctx context.Context, exerciseID int, params progression.Params) (*progression.Recommendation, error)
	All(ctx context.Context, params progression.Params) ([]progression.Recommendation, error)
}

// contextService is what the tool handlers need; kept small for tests.
type contextService interface {
	GetSchema(ctx context.Context) (string, error)
	ListExercises(ctx context.Context) ([]workouts.Exercise, error)
	ListExerciseLogs(ctx context.Context, exerciseID int) ([]workouts.WorkoutLog, error)
	ListLogs(ctx context.Context, from, to *time.Time) ([]workouts.WorkoutLog, error)
	Recommendations(ctx context.Context, exerciseID int, params progression.Params) ([]progression.Recommendation, error)
}

type ContextService struct {
	schema  SchemaRepo
	store   workoutsReader
	advisor advisor
}

func NewContextService(schemaRepo SchemaRepo, store workoutsReader, advisor advisor) *ContextService {
	return &ContextService{
		schema:  schemaRepo,
		store:   store,
		advisor: advisor,
	}
}

// GetSchema renders the columns of the workout tables as markdown.
func (s *ContextService) GetSchema(ctx context.Context) (string, error) {
	cols, err := s.schema.GetColumns(ctx)
	if err != nil {
		return "", err
	}
	return formatSchema(cols), nil
}

func formatSchema(cols []SchemaColumn) string {
	if len(cols) == 0 {
		return "# Workouts DB Schema\n\nNo workout tables found in the database.\n"
	}

	byTable := make(map[string][]SchemaColumn)
	for _, c := range cols {
		byTable[c.TableName] = append(byTable[c.TableName], c)
	}
	tables := make([]string, 0, len(byTable))
	for t := range byTable {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	var b strings.Builder
	b.WriteString("# Workouts DB Schema\n\n")
	b.WriteString("Tables: exercises, workout_logs. A log references its exercise by exercise_id.\n")
	for _, table := range tables {
		b.WriteString("\n## ")
		b.WriteString(table)
		b.WriteString("\n\n| Column | Type | Nullable | Default |\n|--------|------|----------|---------|\n")
		for _, c := range byTable[table] {
			def := "-"
			if c.ColumnDef != nil && *c.ColumnDef != "" {
				def = *c.ColumnDef
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.ColumnName, c.DataType, c.IsNullable, def)
		}
	}

	return b.String()
}

func (s *ContextService) ListExercises(ctx context.Context) ([]workouts.Exercise, error) {
	return s.store.ListExercises(ctx)
}

func (s *ContextService) ListExerciseLogs(ctx context.Context, exerciseID int) ([]workouts.WorkoutLog, error) {
	return s.store.ListExerciseLogs(ctx, exerciseID)
}

// ListLogs returns all logs, most recent first, within the optional date bounds (inclusive).
func (s *ContextService) ListLogs(ctx context.Context, from, to *time.Time) ([]workouts.WorkoutLog, error) {
	logs, err := s.store.ListLogs(ctx)
	if err != nil {
		return nil, err
	}
	if from == nil && to == nil {
		return logs, nil
	}

	filtered := make([]workouts.WorkoutLog, 0, len(logs))
	for _, l := range logs {
		if from != nil && l.Date.Before(*from) {
			continue
		}
		if to != nil && l.Date.After(*to) {
			continue
		}
		filtered = append(filtered, l)
	}
	return filtered, nil
}

// Recommendations for a single exercise when exerciseID > 0, otherwise for all of them.
func (s *ContextService) Recommendations(ctx context.Context, exerciseID int, params progression.Params) ([]progression.Recommendation, error) {
	if exerciseID <= 0 {
		return s.advisor.All(ctx, params)
	}
	rec, err := s.advisor.ForExercise(ctx, exerciseID, params)
	if err != nil {
		return nil, err
	}
	return []progression.Recommendation{*rec}, nil
}
