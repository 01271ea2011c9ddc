package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/msomdec/skill-match/internal/domain"
	"github.com/msomdec/skill-match/internal/validation"
)

// TeamInput holds the editable fields of a team.
type TeamInput struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Category    string   `json:"category" validate:"required,team_category"`
	Role        string   `json:"role" validate:"required,team_role"`
	TeamType    string   `json:"teamType" validate:"required,team_type"`
	Skills      []string `json:"skills" validate:"min=1,max=50,dive,required,max=50"`
	TeamSize    int      `json:"teamSize" validate:"gte=1,lte=100"`
	Description string   `json:"description" validate:"max=2000"`
}

// TeamService manages project teams. Only the creator may change or delete
// a team.
type TeamService struct {
	teams domain.TeamRepository
}

func NewTeamService(teams domain.TeamRepository) *TeamService {
	return &TeamService{teams: teams}
}

func (s *TeamService) Create(ctx context.Context, ownerID string, in TeamInput) (*domain.Team, error) {
	in = in.normalized()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	t := &domain.Team{OwnerID: ownerID}
	in.apply(t)
	if err := s.teams.Create(ctx, t); err != nil {
		return nil, err
	}
	// Re-read to populate the owner summary.
	return s.teams.GetByID(ctx, t.ID)
}

func (s *TeamService) Get(ctx context.Context, id string) (*domain.Team, error) {
	return s.teams.GetByID(ctx, id)
}

func (s *TeamService) List(ctx context.Context) ([]domain.Team, error) {
	return s.teams.List(ctx)
}

func (s *TeamService) Update(ctx context.Context, actorID, id string, in TeamInput) (*domain.Team, error) {
	in = in.normalized()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	t, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	in.apply(t)
	if err := s.teams.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TeamService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.owned(ctx, actorID, id); err != nil {
		return err
	}
	return s.teams.Delete(ctx, id)
}

func (s *TeamService) owned(ctx context.Context, actorID, id string) (*domain.Team, error) {
	t, err := s.teams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != actorID {
		return nil, fmt.Errorf("%w: team belongs to another user", domain.ErrForbidden)
	}
	return t, nil
}

func (in TeamInput) normalized() TeamInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Skills = cleanSkills(in.Skills)
	return in
}

func (in TeamInput) apply(t *domain.Team) {
	t.Name = in.Name
	t.Category = in.Category
	t.Role = in.Role
	t.TeamType = in.TeamType
	t.Skills = in.Skills
	t.TeamSize = in.TeamSize
	t.Description = in.Description
}
