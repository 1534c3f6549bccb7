// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehak2807/urban-pulse-energy/internal/energy"
	"github.com/mehak2807/urban-pulse-energy/internal/hotspot"
	"github.com/mehak2807/urban-pulse-energy/internal/rng"
	"github.com/mehak2807/urban-pulse-energy/internal/scan"
	"github.com/mehak2807/urban-pulse-energy/internal/sensors"
	"github.com/mehak2807/urban-pulse-energy/internal/verify"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "urbanpulse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func makeReading(id, user, cell string, ts int64, useful float64, confidence int, physics bool) scan.Reading {
	r := scan.Reading{
		ID:        id,
		UserID:    user,
		CellID:    cell,
		Location:  scan.Location{Lat: 28.61, Lng: 77.21},
		Timestamp: ts,
		Energy:    energy.Result{UsefulJoules: useful},
	}
	r.Verification.OverallConfidence = confidence
	r.Verification.PhysicsGate.Passed = physics
	r.Verification.PhysicsGate.Kind = verify.GatePhysics
	r.Verification.ContextGate.Kind = verify.GateContext
	r.Verification.SocialGate.Kind = verify.GateSocial
	return r
}

func TestPragmasApplied(t *testing.T) {
	db := openTestDB(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)
}

func TestPragmasOnEveryConnection(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// Holding each connection forces the pool to open a new one.
	for i := 0; i < 3; i++ {
		conn, err := db.Conn(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })

		var busyTimeout, synchronous int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA synchronous").Scan(&synchronous))
		assert.Equal(t, 5000, busyTimeout, "connection %d", i)
		assert.Equal(t, 1, synchronous, "connection %d", i)
	}
}

func TestSaveAndGetReading(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	src := rng.NewSequence(0.5)
	want, err := scan.New(sensors.NewGenerator(src), src, scan.WithPacing(0)).
		Run(ctx, scan.Request{UserID: "u1", Lat: 28.6139, Lng: 77.2090})
	require.NoError(t, err)

	require.NoError(t, db.SaveReading(ctx, want))
	// Redelivery is ignored.
	require.NoError(t, db.SaveReading(ctx, want))

	got, err := db.Reading(ctx, want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	latest, err := db.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.ID, latest.ID)
}

func TestReadingNotFound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Reading(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.Latest(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReadings(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		cell := "a"
		if i%2 == 1 {
			cell = "b"
		}
		r := makeReading(fmt.Sprintf("r%d", i), "u1", cell, int64(1000+i), 1, 50, true)
		require.NoError(t, db.SaveReading(ctx, r))
	}

	inA, err := db.ListReadings(ctx, "a", 0)
	require.NoError(t, err)
	ids := func(rs []scan.Reading) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}
	assert.Equal(t, []string{"r4", "r2", "r0"}, ids(inA))

	all, err := db.ListReadings(ctx, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"r4", "r3"}, ids(all))

	none, err := db.ListReadings(ctx, "zzz", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGridContext(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	g, err := db.GridContext(ctx, "2861_7720")
	require.NoError(t, err)
	assert.Equal(t, verify.GridContext{}, g)

	for i, user := range []string{"u1", "u2", "u1", "u3"} {
		r := makeReading(fmt.Sprintf("r%d", i), user, "2861_7720", int64(i), 0, 40, false)
		require.NoError(t, db.SaveReading(ctx, r))
	}
	require.NoError(t, db.SaveReading(ctx, makeReading("other", "u9", "0_0", 9, 0, 40, false)))

	g, err = db.GridContext(ctx, "2861_7720")
	require.NoError(t, err)
	assert.Equal(t, verify.GridContext{UniqueUsers: 3, PriorReadings: 4}, g)
}

func TestHotspots(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	readings := []scan.Reading{
		makeReading("a1", "u1", "a", 100, 2, 70, true),
		makeReading("a2", "u2", "a", 200, 3, 75, true),
		makeReading("a3", "u2", "a", 300, 4, 68, true),
		makeReading("a4", "u3", "a", 400, 1, 75, false),
		makeReading("b1", "u1", "b", 150, 0.5, 30, false),
	}
	for _, r := range readings {
		require.NoError(t, db.SaveReading(ctx, r))
	}

	hs, err := db.Hotspots(ctx)
	require.NoError(t, err)
	require.Len(t, hs, 2)

	a := hs[0]
	assert.Equal(t, "a", a.ID)
	assert.Equal(t, hotspot.Metrics{
		TotalUsers:       3,
		AverageEnergy:    2.5,
		Confidence:       72,
		SuitabilityScore: 73,
	}, a.Metrics)
	assert.Equal(t, int64(400), a.LastUpdated.UnixMilli())

	b := hs[1]
	assert.Equal(t, 1, b.Metrics.TotalUsers)
	assert.Equal(t, 18, b.Metrics.SuitabilityScore) // 0.6*30
}

func TestUserProfile(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p, err := db.UserProfile(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, UserProfile{ID: "nobody", Role: "user"}, p)

	require.NoError(t, db.SaveReading(ctx, makeReading("r1", "u1", "a", 1, 0.1234, 50, true)))
	require.NoError(t, db.SaveReading(ctx, makeReading("r2", "u1", "b", 2, 0.2, 50, true)))

	p, err = db.UserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.ScansCompleted)
	assert.Equal(t, 0.323, p.TotalEnergyDiscovered)
}
