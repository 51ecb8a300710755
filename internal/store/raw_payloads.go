package store

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// RawPayload is an archived Open-Meteo response body.
type RawPayload struct {
	ID        int64
	RunID     int64 // 0 when not tied to a refresh run
	Endpoint  string
	FetchedAt time.Time
	Body      []byte
}

// ArchivePayload stores p.Body gzipped. Bodies are deduplicated by hash; the
// returned id is 0 when an identical body is already archived.
func (s *Store) ArchivePayload(p RawPayload) (int64, error) {
	gz, err := gzipBytes(p.Body)
	if err != nil {
		return 0, err
	}
	sum := sha256.Sum256(p.Body)

	var runID sql.NullInt64
	if p.RunID != 0 {
		runID = sql.NullInt64{Int64: p.RunID, Valid: true}
	}

	res, err := s.db.Exec(`
		INSERT INTO raw_payloads (run_id, endpoint, fetched_at, body_gz, sha256)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(sha256) DO NOTHING
	`, runID, p.Endpoint, p.FetchedAt.UTC(), gz, hex.EncodeToString(sum[:]))
	if err != nil {
		return 0, fmt.Errorf("archive %s payload: %w", p.Endpoint, err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return 0, err
	}
	return res.LastInsertId()
}

// RawPayload loads an archived payload with its body decompressed.
func (s *Store) RawPayload(id int64) (*RawPayload, error) {
	var (
		p     = RawPayload{ID: id}
		runID sql.NullInt64
		gz    []byte
	)
	err := s.db.QueryRow(`
		SELECT run_id, endpoint, fetched_at, body_gz FROM raw_payloads WHERE id = ?
	`, id).Scan(&runID, &p.Endpoint, &p.FetchedAt, &gz)
	if err != nil {
		return nil, err
	}
	p.RunID = runID.Int64
	if p.Body, err = gunzipBytes(gz); err != nil {
		return nil, err
	}
	return &p, nil
}

// PruneRawPayloads deletes payloads fetched before cutoff.
func (s *Store) PruneRawPayloads(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM raw_payloads WHERE fetched_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func gzipBytes(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return buf.Bytes(), nil
}

func gunzipBytes(b []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}
