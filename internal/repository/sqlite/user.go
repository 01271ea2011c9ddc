package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/skill-match/internal/domain"
)

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

const userColumns = `id, name, email, password_hash, verified, verified_at,
	verification_code, verification_code_expires_at, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	var (
		verified  bool
		at        sql.NullTime
		code      sql.NullString
		expiresAt sql.NullTime
	)
	switch v := user.Verification.(type) {
	case domain.Verified:
		verified = true
		at = sql.NullTime{Time: utc(v.At), Valid: true}
	case domain.Unverified:
		if v.Code != "" {
			code = sql.NullString{String: v.Code, Valid: true}
			expiresAt = sql.NullTime{Time: utc(v.ExpiresAt), Valid: true}
		}
	case nil:
		user.Verification = domain.Unverified{}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash, verified, at, code, expiresAt, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return user, nil
}

// GetByEmail matches case-insensitively; the column is declared NOCASE.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) SetVerificationCode(ctx context.Context, id, code string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET verification_code = ?, verification_code_expires_at = ?, updated_at = ?
		 WHERE id = ? AND verified = 0`,
		code, utc(expiresAt), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set verification code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Either the user is gone or it was verified concurrently.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrAlreadyVerified
	}
	return nil
}

func (r *UserRepository) ConsumeVerificationCode(ctx context.Context, id, code string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET verified = 1, verified_at = ?, verification_code = NULL,
		     verification_code_expires_at = NULL, updated_at = ?
		 WHERE id = ? AND verified = 0 AND verification_code = ?
		   AND verification_code_expires_at > ?`,
		utc(at), utc(at), id, code, utc(at),
	)
	if err != nil {
		return false, fmt.Errorf("consume verification code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *UserRepository) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE verified = 0 AND created_at < ?`, utc(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete unverified users: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		verified  bool
		at        sql.NullTime
		code      sql.NullString
		expiresAt sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &verified, &at,
		&code, &expiresAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if verified {
		u.Verification = domain.Verified{At: nullTime(at)}
	} else {
		u.Verification = domain.Unverified{Code: code.String, ExpiresAt: nullTime(expiresAt)}
	}
	return &u, nil
}
