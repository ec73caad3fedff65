package db

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS exercises (
		id         SERIAL PRIMARY KEY,
		name       TEXT NOT NULL CHECK (length(trim(name)) > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS workout_logs (
		id          SERIAL PRIMARY KEY,
		date        DATE NOT NULL,
		exercise_id INTEGER NOT NULL REFERENCES exercises (id) ON DELETE RESTRICT,
		sets        INTEGER NOT NULL CHECK (sets BETWEEN 1 AND 10),
		reps        INTEGER NOT NULL CHECK (reps BETWEEN 1 AND 100),
		weight      DOUBLE PRECISION NOT NULL CHECK (weight >= 0 AND weight <= 500)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_workout_logs_exercise_date ON workout_logs (exercise_id, date)`,
}

// dates are stored as YYYY-MM-DD text, timestamps as RFC 3339 text
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS exercises (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS workout_logs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		date        TEXT NOT NULL,
		exercise_id INTEGER NOT NULL REFERENCES exercises (id) ON DELETE RESTRICT,
		sets        INTEGER NOT NULL,
		reps        INTEGER NOT NULL,
		weight      REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_workout_logs_exercise_date ON workout_logs (exercise_id, date)`,
}
