package workouts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/liftlog/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// SQLiteRepo is the sqlite backed Store, used for local single-user setups.
// Multi-statement operations run inside a transaction.
type SQLiteRepo struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepo)(nil)

func NewSQLiteRepo(db *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{
		db: db,
	}
}

func (r *SQLiteRepo) AddExercise(ctx context.Context, name string) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.workouts.exercise.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	name, err = NormalizeExerciseName(name)
	if err != nil {
		return nil, err
	}

	exercise := Exercise{
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	res, err := r.db.ExecContext(
		ctx,
		`INSERT INTO exercises (name, created_at) VALUES (?, ?)`,
		exercise.Name, exercise.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("insert exercise: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	exercise.ID = int(id)
	span.SetAttributes(attribute.Int("exercise.id", exercise.ID))
	return &exercise, nil
}

func (r *SQLiteRepo) GetExercise(ctx context.Context, id int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.workouts.exercise.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrExerciseNotFound)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return r.getExercise(ctx, r.db, id)
}

func (r *SQLiteRepo) ListExercises(ctx context.Context) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.workouts.exercise.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM exercises ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	exercises := make([]Exercise, 0)
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, *e)
	}

	return exercises, rows.Err()
}

func (r *SQLiteRepo) DeleteExercise(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.workouts.exercise.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrExerciseNotFound, ErrExerciseInUse)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.getExercise(ctx, tx, id); err != nil {
			return err
		}

		var logsCount int
		if err := tx.QueryRowContext(
			ctx,
			`SELECT COUNT(*) FROM workout_logs WHERE exercise_id = ?`,
			id,
		).Scan(&logsCount); err != nil {
			return fmt.Errorf("count exercise logs: %w", err)
		}
		if logsCount > 0 {
			return ErrExerciseInUse
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete exercise: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepo) AddLog(ctx context.Context, wl WorkoutLog) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.workouts.log.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrExerciseNotFound)
	}()
	span.SetAttributes(attribute.Int("exercise.id", wl.ExerciseID))

	wl.Date = Day(wl.Date)
	if err := wl.Validate(); err != nil {
		return nil, err
	}

	err = r.inTx(ctx, func(tx *sql.Tx) error {
		exercise, err := r.getExercise(ctx, tx, wl.ExerciseID)
		if err != nil {
			return err
		}
		wl.ExerciseName = exercise.Name

		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO workout_logs (date, exercise_id, sets, reps, weight) VALUES (?, ?, ?, ?, ?)`,
			wl.DateString(), wl.ExerciseID, wl.Sets, wl.Reps, wl.Weight,
		)
		if err != nil {
			return fmt.Errorf("insert workout log: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		wl.ID = int(id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("log.id", wl.ID))
	return &wl, nil
}

func (r *SQLiteRepo) GetLog(ctx context.Context, id int) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.workouts.log.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrLogNotFound)
	}()
	span.SetAttributes(attribute.Int("id", id))

	logs, err := r.queryLogs(ctx, `WHERE l.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(logs) != 1 {
		return nil, ErrLogNotFound
	}
	return &logs[0], nil
}

func (r *SQLiteRepo) UpdateLog(ctx context.Context, wl *WorkoutLog) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.workouts.log.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrLogNotFound, ErrExerciseNotFound)
	}()
	span.SetAttributes(attribute.Int("id", wl.ID))

	wl.Date = Day(wl.Date)
	if err := wl.Validate(); err != nil {
		return err
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.getExercise(ctx, tx, wl.ExerciseID); err != nil {
			return err
		}

		res, err := tx.ExecContext(
			ctx,
			`UPDATE workout_logs SET date = ?, exercise_id = ?, sets = ?, reps = ?, weight = ? WHERE id = ?`,
			wl.DateString(), wl.ExerciseID, wl.Sets, wl.Reps, wl.Weight, wl.ID,
		)
		if err != nil {
			return fmt.Errorf("update workout log: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return ErrLogNotFound
		}
		return nil
	})
}

func (r *SQLiteRepo) DeleteLog(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.workouts.log.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrLogNotFound)
	}()
	span.SetAttributes(attribute.Int("id", id))

	res, err := r.db.ExecContext(ctx, `DELETE FROM workout_logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrLogNotFound
	}
	return nil
}

func (r *SQLiteRepo) ListLogs(ctx context.Context) (_ []WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.workouts.log.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.queryLogs(ctx, `ORDER BY l.date DESC, l.id DESC`)
}

func (r *SQLiteRepo) ListExerciseLogs(ctx context.Context, exerciseID int) (_ []WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.workouts.log.list_exercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	return r.queryLogs(ctx, `WHERE l.exercise_id = ? ORDER BY l.date ASC, l.id ASC`, exerciseID)
}

func (r *SQLiteRepo) LastLog(ctx context.Context, exerciseID int) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.workouts.log.last")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrLogNotFound)
	}()
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	logs, err := r.queryLogs(ctx, `WHERE l.exercise_id = ? ORDER BY l.date DESC, l.id DESC LIMIT 1`, exerciseID)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, ErrLogNotFound
	}
	return &logs[0], nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteRepo) getExercise(ctx context.Context, q queryer, id int) (*Exercise, error) {
	row := q.QueryRowContext(ctx, `SELECT id, name, created_at FROM exercises WHERE id = ?`, id)
	e, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExerciseNotFound
	}
	return e, err
}

func (r *SQLiteRepo) queryLogs(ctx context.Context, where string, args ...any) ([]WorkoutLog, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+logColumns+` FROM workout_logs l JOIN exercises e ON e.id = l.exercise_id `+where,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	logs := make([]WorkoutLog, 0)
	for rows.Next() {
		var (
			wl   WorkoutLog
			date string
		)
		if err := rows.Scan(
			&wl.ID, &wl.ExerciseID, &wl.ExerciseName, &date, &wl.Sets, &wl.Reps, &wl.Weight,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if wl.Date, err = time.Parse(DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		logs = append(logs, wl)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (r *SQLiteRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExercise(row rowScanner) (*Exercise, error) {
	var (
		e         Exercise
		createdAt string
	)
	if err := row.Scan(&e.ID, &e.Name, &createdAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	e.CreatedAt = t
	return &e, nil
}
