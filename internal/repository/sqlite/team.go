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

// TeamRepository implements domain.TeamRepository using SQLite.
type TeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *DB) *TeamRepository {
	return &TeamRepository{db: db.SqlDB}
}

// Reads join the owner so callers get a populated TeamOwner.
const teamSelect = `SELECT t.id, t.owner_id, u.name, u.email, t.name, t.category, t.role,
	t.team_type, t.skills, t.team_size, t.description, t.created_at, t.updated_at
	FROM teams t JOIN users u ON u.id = t.owner_id`

func (r *TeamRepository) Create(ctx context.Context, t *domain.Team) error {
	skills, err := encodeSkills(t.Skills)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	t.ID = uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO teams (id, owner_id, name, category, role, team_type, skills, team_size, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Name, t.Category, t.Role, t.TeamType, skills, t.TeamSize, t.Description, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	t, err := scanTeam(r.db.QueryRowContext(ctx, teamSelect+` WHERE t.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	return t, nil
}

func (r *TeamRepository) List(ctx context.Context) ([]domain.Team, error) {
	rows, err := r.db.QueryContext(ctx, teamSelect+` ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	teams := []domain.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) Update(ctx context.Context, t *domain.Team) error {
	skills, err := encodeSkills(t.Skills)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE teams SET name = ?, category = ?, role = ?, team_type = ?, skills = ?,
		 team_size = ?, description = ?, updated_at = ? WHERE id = ?`,
		t.Name, t.Category, t.Role, t.TeamType, skills, t.TeamSize, t.Description, now, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	t.UpdatedAt = now
	return nil
}

func (r *TeamRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM teams WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTeam(row rowScanner) (*domain.Team, error) {
	var (
		t      domain.Team
		skills string
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Owner.Name, &t.Owner.Email, &t.Name, &t.Category,
		&t.Role, &t.TeamType, &skills, &t.TeamSize, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Owner.ID = t.OwnerID
	var err error
	if t.Skills, err = decodeSkills(skills); err != nil {
		return nil, err
	}
	return &t, nil
}
