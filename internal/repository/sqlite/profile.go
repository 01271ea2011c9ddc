package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/msomdec/skill-match/internal/domain"
)

// ProfileRepository implements domain.ProfileRepository using SQLite.
// Skills are stored as a JSON array.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db.SqlDB}
}

const profileColumns = `p.id, p.owner_id, p.name, p.username, p.role, p.skills,
	p.phone, p.portfolio, p.location, p.bio, p.created_at, p.updated_at`

func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	skills, err := encodeSkills(p.Skills)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p.ID = uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, owner_id, name, username, role, skills, phone, portfolio, location, bio, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, p.Username, p.Role, skills,
		p.Phone, p.Portfolio, p.Location, p.Bio, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateUsername
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles p WHERE p.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (r *ProfileRepository) List(ctx context.Context, filter domain.ProfileFilter) ([]domain.Profile, error) {
	var (
		where []string
		args  []any
	)
	if s := strings.TrimSpace(filter.Skill); s != "" {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(p.skills) WHERE lower(json_each.value) = lower(?))`)
		args = append(args, s)
	}
	if s := strings.TrimSpace(filter.Role); s != "" {
		where = append(where, `lower(p.role) = lower(?)`)
		args = append(args, s)
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		where = append(where, `(p.name LIKE ? OR p.username LIKE ? OR p.bio LIKE ?)`)
		like := "%" + s + "%"
		args = append(args, like, like, like)
	}

	query := `SELECT ` + profileColumns + ` FROM profiles p`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []domain.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (r *ProfileRepository) Update(ctx context.Context, p *domain.Profile) error {
	skills, err := encodeSkills(p.Skills)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET name = ?, username = ?, role = ?, skills = ?, phone = ?,
		 portfolio = ?, location = ?, bio = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Username, p.Role, skills, p.Phone, p.Portfolio, p.Location, p.Bio, now, p.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateUsername
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	p.UpdatedAt = now
	return nil
}

func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var (
		p      domain.Profile
		skills string
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Username, &p.Role, &skills,
		&p.Phone, &p.Portfolio, &p.Location, &p.Bio, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Skills, err = decodeSkills(skills); err != nil {
		return nil, err
	}
	return &p, nil
}

func encodeSkills(skills []string) (string, error) {
	if skills == nil {
		skills = []string{}
	}
	b, err := json.Marshal(skills)
	if err != nil {
		return "", fmt.Errorf("encode skills: %w", err)
	}
	return string(b), nil
}

func decodeSkills(s string) ([]string, error) {
	skills := []string{}
	if s == "" {
		return skills, nil
	}
	if err := json.Unmarshal([]byte(s), &skills); err != nil {
		return nil, fmt.Errorf("decode skills: %w", err)
	}
	return skills, nil
}
