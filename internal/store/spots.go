package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/lox/sunsetcast/internal/models"
)

var (
	ErrSpotNotFound = errors.New("spot not found")
	ErrInvalidSpot  = errors.New("invalid spot")
)

// ListSpots returns every stored spot in insertion order.
func (s *Store) ListSpots() ([]models.Spot, error) {
	return listSpots(s.db)
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func listSpots(q querier) ([]models.Spot, error) {
	rows, err := q.Query(`SELECT id, name, type, description, latitude, longitude, icon FROM spots ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spots := []models.Spot{}
	for rows.Next() {
		var sp models.Spot
		var desc, icon sql.NullString
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Type, &desc, &sp.Lat, &sp.Lng, &icon); err != nil {
			return nil, err
		}
		sp.Description = desc.String
		sp.Icon = icon.String
		spots = append(spots, sp)
	}
	return spots, rows.Err()
}

// ReplaceSpots rewrites the whole collection.
func (s *Store) ReplaceSpots(spots []models.Spot) error {
	for _, sp := range spots {
		if err := validateSpot(sp); err != nil {
			return err
		}
	}
	return s.updateSpots(func([]models.Spot) ([]models.Spot, error) {
		return spots, nil
	})
}

// SeedSpots stores spots only when the collection is empty. It reports
// whether anything was written.
func (s *Store) SeedSpots(spots []models.Spot) (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM spots`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	return true, s.ReplaceSpots(spots)
}

// AddSpot appends a user spot with a generated id.
func (s *Store) AddSpot(name string, lat, lng float64) (models.Spot, error) {
	sp := models.Spot{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Type:        models.SpotCustom,
		Description: models.CustomSpotDescription,
		Lat:         lat,
		Lng:         lng,
		Icon:        models.CustomSpotIcon,
	}
	if err := validateSpot(sp); err != nil {
		return models.Spot{}, err
	}

	err := s.updateSpots(func(spots []models.Spot) ([]models.Spot, error) {
		return append(spots, sp), nil
	})
	if err != nil {
		return models.Spot{}, err
	}
	return sp, nil
}

// DeleteSpot removes the spot with id, returning ErrSpotNotFound if absent.
func (s *Store) DeleteSpot(id string) error {
	return s.updateSpots(func(spots []models.Spot) ([]models.Spot, error) {
		out := spots[:0]
		for _, sp := range spots {
			if sp.ID != id {
				out = append(out, sp)
			}
		}
		if len(out) == len(spots) {
			return nil, fmt.Errorf("%w: %s", ErrSpotNotFound, id)
		}
		return out, nil
	})
}

// updateSpots reads the collection, applies fn and writes the result back
// wholesale inside one transaction.
func (s *Store) updateSpots(fn func([]models.Spot) ([]models.Spot, error)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := listSpots(tx)
	if err != nil {
		return fmt.Errorf("read spots: %w", err)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM spots`); err != nil {
		return fmt.Errorf("clear spots: %w", err)
	}
	for i, sp := range next {
		if _, err := tx.Exec(`
			INSERT INTO spots (id, position, name, type, description, latitude, longitude, icon)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, sp.ID, i, sp.Name, sp.Type, sp.Description, sp.Lat, sp.Lng, sp.Icon); err != nil {
			return fmt.Errorf("insert spot %s: %w", sp.ID, err)
		}
	}

	return tx.Commit()
}

func validateSpot(sp models.Spot) error {
	switch {
	case sp.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidSpot)
	case strings.TrimSpace(sp.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidSpot)
	case !sp.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidSpot, sp.Type)
	case math.IsNaN(sp.Lat) || sp.Lat < -90 || sp.Lat > 90:
		return fmt.Errorf("%w: latitude out of range", ErrInvalidSpot)
	case math.IsNaN(sp.Lng) || sp.Lng < -180 || sp.Lng > 180:
		return fmt.Errorf("%w: longitude out of range", ErrInvalidSpot)
	}
	return nil
}
