package store

import (
	"database/sql"
	"time"
)

// RefreshRun audits one fetch cycle against both Open-Meteo endpoints.
type RefreshRun struct {
	ID            int64      `json:"id"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	WeatherStatus int        `json:"weather_status,omitempty"`
	AirStatus     int        `json:"air_status,omitempty"`
	ResponseBytes int        `json:"response_bytes"`
	DaysAssembled int        `json:"days_assembled"`
	Success       bool       `json:"success"`
	Error         string     `json:"error,omitempty"`
}

func (s *Store) StartRefreshRun(startedAt time.Time) (*RefreshRun, error) {
	run := &RefreshRun{StartedAt: startedAt.UTC()}
	res, err := s.db.Exec(`INSERT INTO refresh_runs (started_at) VALUES (?)`, run.StartedAt)
	if err != nil {
		return nil, err
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return run, nil
}

// FinishRefreshRun stamps run with finishedAt and writes its outcome.
func (s *Store) FinishRefreshRun(run *RefreshRun, finishedAt time.Time) error {
	t := finishedAt.UTC()
	run.FinishedAt = &t
	_, err := s.db.Exec(`
		UPDATE refresh_runs SET
			finished_at = ?, weather_status = ?, air_status = ?,
			response_bytes = ?, days_assembled = ?, success = ?, error = ?
		WHERE id = ?
	`, t, nullInt(run.WeatherStatus), nullInt(run.AirStatus),
		run.ResponseBytes, run.DaysAssembled, run.Success, nullString(run.Error), run.ID)
	return err
}

// LastRefreshRun returns the most recently started run, or nil.
func (s *Store) LastRefreshRun() (*RefreshRun, error) {
	runs, err := s.queryRuns(`ORDER BY started_at DESC, id DESC LIMIT 1`)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

func (s *Store) RecentFailedRuns(limit int) ([]RefreshRun, error) {
	return s.queryRuns(`WHERE finished_at IS NOT NULL AND success = FALSE ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
}

func (s *Store) queryRuns(clause string, args ...any) ([]RefreshRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, weather_status, air_status,
		       response_bytes, days_assembled, success, error
		FROM refresh_runs `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RefreshRun
	for rows.Next() {
		var (
			r            RefreshRun
			finished     sql.NullTime
			weather, air sql.NullInt64
			errMsg       sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.StartedAt, &finished, &weather, &air,
			&r.ResponseBytes, &r.DaysAssembled, &r.Success, &errMsg); err != nil {
			return nil, err
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		r.WeatherStatus = int(weather.Int64)
		r.AirStatus = int(air.Int64)
		r.Error = errMsg.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
