// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package store persists completed scans in SQLite and answers the cell and
// user queries the verifier and dashboard need.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mehak2807/urban-pulse-energy/internal/hotspot"
	"github.com/mehak2807/urban-pulse-energy/internal/rounding"
	"github.com/mehak2807/urban-pulse-energy/internal/scan"
	"github.com/mehak2807/urban-pulse-energy/internal/verify"
)

// ErrNotFound is returned when a reading does not exist.
var ErrNotFound = errors.New("store: not found")

// DefaultListLimit caps ListReadings when no limit is given.
const DefaultListLimit = 50

const schema = `
	CREATE TABLE IF NOT EXISTS readings (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL,
		cell_id             TEXT NOT NULL,
		lat                 DOUBLE,
		lng                 DOUBLE,
		timestamp_ms        BIGINT NOT NULL,
		useful_energy       DOUBLE,
		overall_confidence  INTEGER,
		physics_passed      INTEGER,
		payload             TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_readings_cell ON readings (cell_id, timestamp_ms);
	CREATE INDEX IF NOT EXISTS idx_readings_user ON readings (user_id);
`

// pragmas are applied by the driver on every pooled connection.
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

type DB struct {
	*sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &DB{db}, nil
}

// SaveReading stores r. Saving the same id twice keeps the first copy, so
// redelivered messages are harmless.
func (db *DB) SaveReading(ctx context.Context, r scan.Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store: marshal reading %s: %w", r.ID, err)
	}
	physics := 0
	if r.Verification.PhysicsGate.Passed {
		physics = 1
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO readings (
			id, user_id, cell_id, lat, lng, timestamp_ms,
			useful_energy, overall_confidence, physics_passed, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		r.ID, r.UserID, r.CellID, r.Location.Lat, r.Location.Lng, r.Timestamp,
		r.Energy.UsefulJoules, r.Verification.OverallConfidence, physics, string(payload),
	)
	if err != nil {
		return fmt.Errorf("store: save reading %s: %w", r.ID, err)
	}
	return nil
}

// Reading returns the reading with the given id.
func (db *DB) Reading(ctx context.Context, id string) (scan.Reading, error) {
	var payload string
	err := db.QueryRowContext(ctx, `SELECT payload FROM readings WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return scan.Reading{}, fmt.Errorf("%w: reading %s", ErrNotFound, id)
	}
	if err != nil {
		return scan.Reading{}, fmt.Errorf("store: reading %s: %w", id, err)
	}
	return decode(payload)
}

// Latest returns the most recent reading.
func (db *DB) Latest(ctx context.Context) (scan.Reading, error) {
	readings, err := db.ListReadings(ctx, "", 1)
	if err != nil {
		return scan.Reading{}, err
	}
	if len(readings) == 0 {
		return scan.Reading{}, fmt.Errorf("%w: no readings", ErrNotFound)
	}
	return readings[0], nil
}

// ListReadings returns the newest readings in a cell, or across all cells
// when cellID is empty.
func (db *DB) ListReadings(ctx context.Context, cellID string, limit int) ([]scan.Reading, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var (
		rows *sql.Rows
		err  error
	)
	if cellID == "" {
		rows, err = db.QueryContext(ctx,
			`SELECT payload FROM readings ORDER BY timestamp_ms DESC, id LIMIT ?`, limit)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT payload FROM readings WHERE cell_id = ? ORDER BY timestamp_ms DESC, id LIMIT ?`, cellID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("store: list readings: %w", err)
	}
	defer rows.Close()

	var out []scan.Reading
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		r, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GridContext summarises a cell's history for the social gate.
func (db *DB) GridContext(ctx context.Context, cellID string) (verify.GridContext, error) {
	var g verify.GridContext
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT user_id), COUNT(*) FROM readings WHERE cell_id = ?`, cellID,
	).Scan(&g.UniqueUsers, &g.PriorReadings)
	if err != nil {
		return verify.GridContext{}, fmt.Errorf("store: grid context %s: %w", cellID, err)
	}
	return g, nil
}

// Hotspots aggregates every cell with readings.
func (db *DB) Hotspots(ctx context.Context) ([]hotspot.Hotspot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT cell_id, AVG(lat), AVG(lng), COUNT(DISTINCT user_id), COUNT(*),
		       SUM(useful_energy), SUM(overall_confidence), SUM(physics_passed),
		       MAX(timestamp_ms)
		FROM readings
		GROUP BY cell_id
		ORDER BY cell_id`)
	if err != nil {
		return nil, fmt.Errorf("store: hotspots: %w", err)
	}
	defer rows.Close()

	var out []hotspot.Hotspot
	for rows.Next() {
		var (
			a      hotspot.Aggregate
			lastMs int64
		)
		if err := rows.Scan(&a.CellID, &a.Lat, &a.Lng, &a.Users, &a.Readings,
			&a.EnergySum, &a.ConfidenceSum, &a.PhysicsPassed, &lastMs); err != nil {
			return nil, fmt.Errorf("store: scan hotspot: %w", err)
		}
		a.LastUpdated = time.UnixMilli(lastMs).UTC()
		out = append(out, hotspot.FromAggregate(a))
	}
	return out, rows.Err()
}

// UserProfile is a contributor's running total.
type UserProfile struct {
	ID                    string  `json:"id"`
	Role                  string  `json:"role"`
	ScansCompleted        int     `json:"scansCompleted"`
	TotalEnergyDiscovered float64 `json:"totalEnergyDiscovered"`
}

// UserProfile returns the totals for userID. Unknown users have zero scans.
func (db *DB) UserProfile(ctx context.Context, userID string) (UserProfile, error) {
	p := UserProfile{ID: userID, Role: "user"}
	var total sql.NullFloat64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*), SUM(useful_energy) FROM readings WHERE user_id = ?`, userID,
	).Scan(&p.ScansCompleted, &total)
	if err != nil {
		return UserProfile{}, fmt.Errorf("store: user profile %s: %w", userID, err)
	}
	p.TotalEnergyDiscovered = rounding.HalfUp(total.Float64, 3)
	return p, nil
}

func decode(payload string) (scan.Reading, error) {
	var r scan.Reading
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return scan.Reading{}, fmt.Errorf("store: decode reading: %w", err)
	}
	return r, nil
}
