package store

import (
	"database/sql"
	"time"
)

// HistoryEntry is one day's outlook as produced by a single refresh.
type HistoryEntry struct {
	FetchedAt   time.Time `json:"fetched_at"`
	ValidDate   string    `json:"valid_date"`
	DayOffset   int       `json:"day_offset"`
	Score       int       `json:"score"`
	Confidence  int       `json:"confidence"`
	SunsetKind  string    `json:"sunset_kind"`
	MatchedKind string    `json:"matched_kind"`
	SunsetAt    time.Time `json:"sunset_at"`
	CloudLow    float64   `json:"cloud_low"`
	CloudMid    float64   `json:"cloud_mid"`
	CloudHigh   float64   `json:"cloud_high"`
	Humidity    float64   `json:"humidity"`
	Visibility  float64   `json:"visibility"`
	WindSpeed   float64   `json:"wind_speed"`
	Pressure    float64   `json:"pressure"`
	PM10        float64   `json:"pm10"`
}

// InsertHistory stores entries in one transaction. Duplicate
// (fetched_at, valid_date) pairs are ignored.
func (s *Store) InsertHistory(entries []HistoryEntry) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	inserted := 0
	for _, e := range entries {
		var sunsetAt sql.NullTime
		if !e.SunsetAt.IsZero() {
			sunsetAt = sql.NullTime{Time: e.SunsetAt.UTC(), Valid: true}
		}
		res, err := tx.Exec(`
			INSERT INTO outlook_history (fetched_at, valid_date, day_offset, score, confidence, sunset_kind, matched_kind, sunset_at,
				cloud_low, cloud_mid, cloud_high, humidity, visibility, wind_speed, pressure, pm10)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(fetched_at, valid_date) DO NOTHING
		`, e.FetchedAt.UTC(), e.ValidDate, e.DayOffset, e.Score, e.Confidence, e.SunsetKind, e.MatchedKind, sunsetAt,
			e.CloudLow, e.CloudMid, e.CloudHigh, e.Humidity, e.Visibility, e.WindSpeed, e.Pressure, e.PM10)
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	return inserted, tx.Commit()
}

// History returns entries whose valid date falls within the last days days
// (today included), newest fetch first.
func (s *Store) History(now time.Time, days int) ([]HistoryEntry, error) {
	local := now.In(s.loc)
	since := time.Date(local.Year(), local.Month(), local.Day()-(days-1), 0, 0, 0, 0, s.loc).Format("2006-01-02")

	rows, err := s.db.Query(`
		SELECT fetched_at, valid_date, day_offset, score, confidence, sunset_kind, matched_kind, sunset_at,
			cloud_low, cloud_mid, cloud_high, humidity, visibility, wind_speed, pressure, pm10
		FROM outlook_history
		WHERE valid_date >= ?
		ORDER BY fetched_at DESC, day_offset ASC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		var sunsetAt sql.NullTime
		if err := rows.Scan(&e.FetchedAt, &e.ValidDate, &e.DayOffset, &e.Score, &e.Confidence, &e.SunsetKind, &e.MatchedKind, &sunsetAt,
			&e.CloudLow, &e.CloudMid, &e.CloudHigh, &e.Humidity, &e.Visibility, &e.WindSpeed, &e.Pressure, &e.PM10); err != nil {
			return nil, err
		}
		if sunsetAt.Valid {
			e.SunsetAt = sunsetAt.Time.In(s.loc)
		}
		e.FetchedAt = e.FetchedAt.In(s.loc)
		e.ValidDate = normalizeDate(e.ValidDate)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// normalizeDate trims any time portion the driver may attach to DATE columns.
func normalizeDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
