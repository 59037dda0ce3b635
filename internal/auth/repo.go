package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/innkeep/innkeep/internal/platform/db"
	"github.com/innkeep/innkeep/internal/rbac"
)

// Repository defines persistence operations for the staff directory.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	TouchLogin(ctx context.Context, userID string, at time.Time) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS staff_users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	role_id       TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	last_login    TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the staff_users table when missing.
func (r *PGRepository) EnsureSchema(ctx context.Context) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schema); err != nil {
			return fmt.Errorf("auth: ensure schema: %w", err)
		}
		return nil
	})
}

// Seed upserts users by id, leaving last_login untouched for existing rows.
func (r *PGRepository) Seed(ctx context.Context, users ...User) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, u := range users {
			_, err := tx.Exec(ctx, `INSERT INTO staff_users (id, name, email, role_id, password_hash, is_active)
VALUES ($1, $2, lower($3), $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, role_id = EXCLUDED.role_id,
	password_hash = EXCLUDED.password_hash, is_active = EXCLUDED.is_active, updated_at = NOW()`,
				u.ID, u.Name, u.Email, u.RoleID, u.PasswordHash, u.IsActive)
			if err != nil {
				return fmt.Errorf("auth: seed %s: %w", u.ID, err)
			}
		}
		return nil
	})
}

const userColumns = `id, name, email, role_id, password_hash, is_active, last_login, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		u         User
		lastLogin pgtype.Timestamptz
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.RoleID, &u.PasswordHash, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM staff_users WHERE lower(email) = $1`, normalizeEmail(email))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("auth: find by email: %w", err)
	}
	return &user, nil
}

// ListUsers returns every directory user ordered by id.
func (r *PGRepository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM staff_users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("auth: list users: %w", err)
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("auth: scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auth: list users: %w", err)
	}
	return users, nil
}

// TouchLogin stores the last login time.
func (r *PGRepository) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE staff_users SET last_login = $2, updated_at = NOW() WHERE id = $1`,
		userID, pgtype.Timestamptz{Time: at.UTC(), Valid: true})
	if err != nil {
		return fmt.Errorf("auth: touch login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MemoryRepository is an in-process directory.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryRepository builds a directory from the given users.
func NewMemoryRepository(users ...User) *MemoryRepository {
	repo := &MemoryRepository{users: make(map[string]*User, len(users))}
	for _, u := range users {
		u := u
		repo.users[u.ID] = &u
	}
	return repo
}

// FixtureUsers returns the dashboard's sample staff, all sharing one password
// hashed at the given bcrypt cost.
func FixtureUsers(password string, cost int) ([]User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash fixture password: %w", err)
	}
	stamp := func(s string) *time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return &t
	}
	seed := []User{
		{ID: "1", Name: "John Doe", Email: "john@example.com", RoleID: rbac.RoleOwner, IsActive: true, LastLogin: stamp("2025-05-15T10:30:00Z")},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", RoleID: rbac.RoleManager, IsActive: true, LastLogin: stamp("2025-05-14T15:45:00Z")},
		{ID: "3", Name: "Robert Brown", Email: "robert@example.com", RoleID: rbac.RoleReceptionist, IsActive: true, LastLogin: stamp("2025-05-15T08:15:00Z")},
		{ID: "4", Name: "Emily Wilson", Email: "emily@example.com", RoleID: rbac.RoleAccountant, IsActive: true, LastLogin: stamp("2025-05-13T11:20:00Z")},
		{ID: "5", Name: "Michael Johnson", Email: "michael@example.com", RoleID: rbac.RoleReceptionist, IsActive: false, LastLogin: stamp("2025-05-10T09:30:00Z")},
	}
	for i := range seed {
		seed[i].PasswordHash = string(hash)
	}
	return seed, nil
}

// NewFixtureRepository is an in-memory directory holding FixtureUsers.
func NewFixtureRepository(password string, cost int) (*MemoryRepository, error) {
	seed, err := FixtureUsers(password, cost)
	if err != nil {
		return nil, err
	}
	return NewMemoryRepository(seed...), nil
}

// FindByEmail implements Repository.
func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = normalizeEmail(email)
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// ListUsers implements Repository.
func (r *MemoryRepository) ListUsers(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// TouchLogin implements Repository.
func (r *MemoryRepository) TouchLogin(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	t := at.UTC()
	u.LastLogin = &t
	u.UpdatedAt = t
	return nil
}

var (
	_ Repository = (*PGRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
