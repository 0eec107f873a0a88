// Package devseed populates a development database with a known login and a
// few street segments so the gateway is usable immediately after startup.
// Never wired up outside dev mode.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/curbmap/curbmap-api/internal/adapters/password"
	"github.com/curbmap/curbmap-api/internal/data"
	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
	"github.com/curbmap/curbmap-api/internal/ports"
)

const (
	devUsername = "dev"
	devPassword = "curbmap-dev"
)

// Seed inserts the dev user and sample segments. Re-running is a no-op.
func Seed(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if err := seedUser(ctx, data.NewUserRepo(db)); err != nil {
		return err
	}
	if err := seedSegments(ctx, db); err != nil {
		return err
	}

	logger.InfoContext(ctx, "dev data seeded", "username", devUsername)
	return nil
}

func seedUser(ctx context.Context, directory ports.UserDirectory) error {
	_, err := directory.FindByUsername(ctx, devUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ports.ErrUserNotFound) {
		return fmt.Errorf("check dev user: %w", err)
	}

	hash, err := password.Hash(devPassword)
	if err != nil {
		return fmt.Errorf("hash dev password: %w", err)
	}

	user := &domainauth.User{
		Username:     devUsername,
		PasswordHash: hash,
		Role:         domainauth.RoleAdmin,
	}
	if err := directory.Create(ctx, user); err != nil && !errors.Is(err, data.ErrUsernameExists) {
		return fmt.Errorf("create dev user: %w", err)
	}
	return nil
}

// seedSegments inserts one sample segment near downtown San Francisco with a
// time-limited parking restriction on each point.
func seedSegments(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM street_segments`).Scan(&count); err != nil {
		return fmt.Errorf("count segments: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var segmentID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO street_segments (gid, cams_id, fullname, status, type, start_lng, start_lat, end_lng, end_lat)
		VALUES (1, 1, 'Market St', 'active', 'street', -122.3969, 37.7937, -122.3985, 37.7924)
		RETURNING id
	`).Scan(&segmentID)
	if err != nil {
		return fmt.Errorf("insert seed segment: %w", err)
	}

	points := [][2]float64{
		{-122.3969, 37.7937},
		{-122.3985, 37.7924},
	}
	for i, coords := range points {
		var pointID string
		err = tx.QueryRowContext(ctx, `
			INSERT INTO segment_points (segment_id, position, lng, lat)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, segmentID, i, coords[0], coords[1]).Scan(&pointID)
		if err != nil {
			return fmt.Errorf("insert seed point: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO point_restrictions (point_id, kind, days, start_time, end_time, updated_by, time_limit)
			VALUES ($1, '1P', 'MTWThF', '0800', '1800', $2, 120)
		`, pointID, devUsername)
		if err != nil {
			return fmt.Errorf("insert seed restriction: %w", err)
		}
	}

	return tx.Commit()
}
