// Package sqlite provides a SQLite-backed challenge snapshot store.
//
// It persists the single active challenge slot and a journal of resolved
// challenges used for recent-type variety tracking.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/haverlock/undercroft/internal/challenge/domain"
	"github.com/haverlock/undercroft/internal/challenge/storage"
	"github.com/haverlock/undercroft/internal/challenge/storage/sqlite/migrations"
	sqlitemigrate "github.com/haverlock/undercroft/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func encodeStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(encoded), nil
}

func decodeStrings(value string) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(value), &values); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return values, nil
}

func encodeMetadata(metadata map[string]string) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(encoded), nil
}

func decodeMetadata(value string) (map[string]string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(value), &metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return metadata, nil
}

// Store provides SQLite-backed persistence for challenge records.
type Store struct {
	sqlDB *sql.DB
}

// DB returns the underlying sql.DB instance.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

// Open opens a SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

// SaveActive writes the active challenge snapshot, replacing any
// previous one.
func (s *Store) SaveActive(ctx context.Context, snapshot domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(snapshot.ID) == "" {
		return fmt.Errorf("challenge id is required")
	}

	responses, err := encodeStrings(snapshot.Responses)
	if err != nil {
		return fmt.Errorf("save active challenge: %w", err)
	}
	metadata, err := encodeMetadata(snapshot.Metadata)
	if err != nil {
		return fmt.Errorf("save active challenge: %w", err)
	}

	var endedAt sql.NullInt64
	if !snapshot.EndedAt.IsZero() {
		endedAt = sql.NullInt64{Int64: toMillis(snapshot.EndedAt), Valid: true}
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO active_challenge (
	slot, id, type, state, prompt, description, expected_pattern, difficulty,
	base_reward_xp, time_limit_ms, max_attempts, attempts_remaining, responses,
	hints_used, metadata, completed, successful, final_feedback, started_at, ended_at
) VALUES ('active', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(slot) DO UPDATE SET
	id = excluded.id,
	type = excluded.type,
	state = excluded.state,
	prompt = excluded.prompt,
	description = excluded.description,
	expected_pattern = excluded.expected_pattern,
	difficulty = excluded.difficulty,
	base_reward_xp = excluded.base_reward_xp,
	time_limit_ms = excluded.time_limit_ms,
	max_attempts = excluded.max_attempts,
	attempts_remaining = excluded.attempts_remaining,
	responses = excluded.responses,
	hints_used = excluded.hints_used,
	metadata = excluded.metadata,
	completed = excluded.completed,
	successful = excluded.successful,
	final_feedback = excluded.final_feedback,
	started_at = excluded.started_at,
	ended_at = excluded.ended_at
`,
		snapshot.ID,
		snapshot.Type.String(),
		snapshot.State.String(),
		snapshot.Prompt,
		snapshot.Description,
		snapshot.ExpectedPattern,
		snapshot.Difficulty.String(),
		snapshot.BaseRewardXP,
		snapshot.TimeLimit.Milliseconds(),
		snapshot.MaxAttempts,
		snapshot.AttemptsRemaining,
		responses,
		snapshot.HintsUsed,
		metadata,
		boolToInt(snapshot.Completed),
		boolToInt(snapshot.Successful),
		snapshot.FinalFeedback,
		toMillis(snapshot.StartedAt),
		endedAt,
	)
	if err != nil {
		return fmt.Errorf("save active challenge: %w", err)
	}
	return nil
}

// LoadActive returns the saved active snapshot, or storage.ErrNotFound.
func (s *Store) LoadActive(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Snapshot{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, type, state, prompt, description, expected_pattern, difficulty,
	base_reward_xp, time_limit_ms, max_attempts, attempts_remaining, responses,
	hints_used, metadata, completed, successful, final_feedback, started_at, ended_at
FROM active_challenge
WHERE slot = 'active'
`)

	var (
		snapshot      domain.Snapshot
		typeLabel     string
		stateLabel    string
		diffLabel     string
		timeLimitMS   int64
		responsesRaw  string
		metadataRaw   string
		completedInt  int
		successfulInt int
		startedAt     int64
		endedAt       sql.NullInt64
	)
	err := row.Scan(
		&snapshot.ID,
		&typeLabel,
		&stateLabel,
		&snapshot.Prompt,
		&snapshot.Description,
		&snapshot.ExpectedPattern,
		&diffLabel,
		&snapshot.BaseRewardXP,
		&timeLimitMS,
		&snapshot.MaxAttempts,
		&snapshot.AttemptsRemaining,
		&responsesRaw,
		&snapshot.HintsUsed,
		&metadataRaw,
		&completedInt,
		&successfulInt,
		&snapshot.FinalFeedback,
		&startedAt,
		&endedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Snapshot{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load active challenge: %w", err)
	}

	snapshot.Type, err = domain.ParseType(typeLabel)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load active challenge: %w", err)
	}
	snapshot.State, err = domain.ParseState(stateLabel)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load active challenge: %w", err)
	}
	snapshot.Difficulty, err = domain.ParseDifficulty(diffLabel)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load active challenge: %w", err)
	}
	snapshot.Responses, err = decodeStrings(responsesRaw)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load active challenge: %w", err)
	}
	snapshot.Metadata, err = decodeMetadata(metadataRaw)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load active challenge: %w", err)
	}
	snapshot.TimeLimit = time.Duration(timeLimitMS) * time.Millisecond
	snapshot.Completed = completedInt != 0
	snapshot.Successful = successfulInt != 0
	snapshot.StartedAt = fromMillis(startedAt)
	if endedAt.Valid {
		snapshot.EndedAt = fromMillis(endedAt.Int64)
	}
	return snapshot, nil
}

// ClearActive removes the saved active snapshot.
func (s *Store) ClearActive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM active_challenge WHERE slot = 'active'`); err != nil {
		return fmt.Errorf("clear active challenge: %w", err)
	}
	return nil
}

// AppendCompleted journals a resolved challenge.
func (s *Store) AppendCompleted(ctx context.Context, snapshot domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(snapshot.ID) == "" {
		return fmt.Errorf("challenge id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO completed_challenges (
	id, type, difficulty, successful, hints_used, final_feedback, started_at, ended_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		snapshot.ID,
		snapshot.Type.String(),
		snapshot.Difficulty.String(),
		boolToInt(snapshot.Successful),
		snapshot.HintsUsed,
		snapshot.FinalFeedback,
		toMillis(snapshot.StartedAt),
		toMillis(snapshot.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("append completed challenge: %w", err)
	}
	return nil
}

// RecentTypes returns the types of the most recently resolved challenges,
// most recent first.
func (s *Store) RecentTypes(ctx context.Context, limit int) ([]domain.Type, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT type FROM completed_challenges ORDER BY seq DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent challenge types: %w", err)
	}
	defer rows.Close()

	var types []domain.Type
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("list recent challenge types: %w", err)
		}
		parsed, err := domain.ParseType(label)
		if err != nil {
			return nil, fmt.Errorf("list recent challenge types: %w", err)
		}
		types = append(types, parsed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recent challenge types: %w", err)
	}
	return types, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
