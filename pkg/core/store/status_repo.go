package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceStatus is the persisted outcome of the most recent refresh of one
// data source.
type SourceStatus struct {
	Source         string     `json:"source"`
	LastStart      *time.Time `json:"last_refresh_start,omitempty"`
	LastComplete   *time.Time `json:"last_refresh_complete,omitempty"`
	LatestDataDate *string    `json:"latest_data_date,omitempty"`
	RecordsUpdated int64      `json:"records_updated"`
	State          string     `json:"state"` // running, success, error
	ErrorMessage   *string    `json:"error_message,omitempty"`
}

// Session is one orchestrated refresh run.
type Session struct {
	ID             uuid.UUID
	Mode           string
	State          string // created, running, completed, error
	TotalSteps     int
	CompletedSteps int
	CurrentStep    *string
	ErrorMessage   *string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// StatusRepo owns data_refresh_status and refresh_progress. The
// orchestrator writes here after every step so freshness reads and progress
// polls see a consistent picture.
type StatusRepo struct {
	db DB
}

func NewStatusRepo(db DB) *StatusRepo {
	return &StatusRepo{db: db}
}

// MarkSourceStarted records that a refresh of source began now.
func (r *StatusRepo) MarkSourceStarted(ctx context.Context, source string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO data_refresh_status (source, last_refresh_start, state, records_updated)
		VALUES ($1, NOW(), 'running', 0)
		ON CONFLICT (source) DO UPDATE SET
			last_refresh_start = NOW(),
			state = 'running',
			error_message = NULL`, source)
	if err != nil {
		return fmt.Errorf("mark source started %s: %w", source, err)
	}
	return nil
}

// MarkSourceComplete records a successful refresh of source.
func (r *StatusRepo) MarkSourceComplete(ctx context.Context, source string, latestDataDate string, records int64) error {
	var latest *string
	if latestDataDate != "" {
		latest = &latestDataDate
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO data_refresh_status (source, last_refresh_complete, latest_data_date, records_updated, state)
		VALUES ($1, NOW(), $2, $3, 'success')
		ON CONFLICT (source) DO UPDATE SET
			last_refresh_complete = NOW(),
			latest_data_date = COALESCE(EXCLUDED.latest_data_date, data_refresh_status.latest_data_date),
			records_updated = EXCLUDED.records_updated,
			state = 'success',
			error_message = NULL`, source, latest, records)
	if err != nil {
		return fmt.Errorf("mark source complete %s: %w", source, err)
	}
	return nil
}

// MarkSourceError records a failed refresh of source.
func (r *StatusRepo) MarkSourceError(ctx context.Context, source, message string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO data_refresh_status (source, state, error_message, records_updated)
		VALUES ($1, 'error', $2, 0)
		ON CONFLICT (source) DO UPDATE SET
			state = 'error',
			error_message = EXCLUDED.error_message`, source, message)
	if err != nil {
		return fmt.Errorf("mark source error %s: %w", source, err)
	}
	return nil
}

// SourceStatuses returns the refresh status of every known source.
func (r *StatusRepo) SourceStatuses(ctx context.Context) (map[string]SourceStatus, error) {
	rows, err := r.db.Query(ctx, `
		SELECT source, last_refresh_start, last_refresh_complete,
		       latest_data_date::text, records_updated, state, error_message
		FROM data_refresh_status`)
	if err != nil {
		return nil, fmt.Errorf("source statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]SourceStatus)
	for rows.Next() {
		var s SourceStatus
		if err := rows.Scan(&s.Source, &s.LastStart, &s.LastComplete,
			&s.LatestDataDate, &s.RecordsUpdated, &s.State, &s.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan source status: %w", err)
		}
		statuses[s.Source] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source statuses: %w", err)
	}
	return statuses, nil
}

// CreateSession inserts a new refresh session in the created state and
// returns its id.
func (r *StatusRepo) CreateSession(ctx context.Context, mode string, totalSteps int) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.Exec(ctx, `
		INSERT INTO refresh_progress (session_id, mode, state, total_steps, completed_steps, started_at)
		VALUES ($1, $2, 'created', $3, 0, NOW())`, id, mode, totalSteps)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// StartSession moves a session to running.
func (r *StatusRepo) StartSession(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE refresh_progress SET state = 'running' WHERE session_id = $1`, id)
	if err != nil {
		return fmt.Errorf("start session %s: %w", id, err)
	}
	return nil
}

// RecordStep updates the current step name and completed count for a
// running session.
func (r *StatusRepo) RecordStep(ctx context.Context, id uuid.UUID, stepName string, completed int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE refresh_progress SET current_step = $2, completed_steps = $3
		WHERE session_id = $1`, id, stepName, completed)
	if err != nil {
		return fmt.Errorf("record step %s: %w", stepName, err)
	}
	return nil
}

// FinishSession finalizes a session. errorMessage empty means completed.
func (r *StatusRepo) FinishSession(ctx context.Context, id uuid.UUID, errorMessage string) error {
	state := "completed"
	var msg *string
	if errorMessage != "" {
		state = "error"
		msg = &errorMessage
	}
	_, err := r.db.Exec(ctx, `
		UPDATE refresh_progress
		SET state = $2, error_message = $3, finished_at = NOW(), current_step = NULL
		WHERE session_id = $1`, id, state, msg)
	if err != nil {
		return fmt.Errorf("finish session %s: %w", id, err)
	}
	return nil
}

// GetSession returns one session by id, or nil when it does not exist.
func (r *StatusRepo) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session
	err := r.db.QueryRow(ctx, `
		SELECT session_id, mode, state, total_steps, completed_steps,
		       current_step, error_message, started_at, finished_at
		FROM refresh_progress
		WHERE session_id = $1`, id).Scan(
		&s.ID, &s.Mode, &s.State, &s.TotalSteps, &s.CompletedSteps,
		&s.CurrentStep, &s.ErrorMessage, &s.StartedAt, &s.FinishedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &s, nil
}
