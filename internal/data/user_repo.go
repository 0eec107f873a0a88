package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
	"github.com/curbmap/curbmap-api/internal/data/pgxutil"
	"github.com/curbmap/curbmap-api/internal/ports"
)

// ErrUsernameExists is returned when attempting to create a user with a duplicate username.
var ErrUsernameExists = errors.New("username already exists")

// UserRepo is the Postgres-backed user directory.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// userRow mirrors the users table for pgx struct scanning.
type userRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	Score        int       `db:"score"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toDomain() *domainauth.User {
	return &domainauth.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         domainauth.Role(r.Role),
		Score:        r.Score,
		CreatedAt:    r.CreatedAt,
	}
}

// FindByUsername returns the user record for a username, or ports.ErrUserNotFound.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domainauth.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ports.ErrUserNotFound
	}

	var out userRow
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, username, password_hash, role, score, created_at
			FROM users
			WHERE username = $1
		`, username)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}

	return out.toDomain(), nil
}

// Create inserts a new user record. The assigned id and creation time are
// written back to the given user.
func (r *UserRepo) Create(ctx context.Context, user *domainauth.User) error {
	if user == nil {
		return errors.New("user is required")
	}
	username := strings.TrimSpace(user.Username)
	if username == "" {
		return errors.New("username is required")
	}
	role := user.Role
	if role == "" {
		role = domainauth.RoleUser
	}

	var out userRow
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO users (username, password_hash, role, score)
			VALUES ($1, $2, $3, $4)
			RETURNING id, username, password_hash, role, score, created_at
		`, username, user.PasswordHash, string(role), user.Score)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrUsernameExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	user.ID = out.ID
	user.Username = out.Username
	user.Role = domainauth.Role(out.Role)
	user.CreatedAt = out.CreatedAt
	return nil
}
