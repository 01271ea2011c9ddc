package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/msomdec/skill-match/internal/domain"
	"github.com/msomdec/skill-match/internal/validation"
)

// ProfileInput holds the editable fields of a profile.
type ProfileInput struct {
	Name      string   `json:"name" validate:"required,max=100"`
	Username  string   `json:"username" validate:"required,min=3,max=30"`
	Role      string   `json:"role" validate:"required,max=100"`
	Skills    []string `json:"skills" validate:"min=1,max=50,dive,required,max=50"`
	Phone     string   `json:"phone" validate:"max=30"`
	Portfolio string   `json:"portfolio" validate:"omitempty,url"`
	Location  string   `json:"location" validate:"max=100"`
	Bio       string   `json:"bio" validate:"required,max=2000"`
}

// ProfileService manages skills profiles. Only the owner may change or
// delete a profile.
type ProfileService struct {
	profiles domain.ProfileRepository
}

func NewProfileService(profiles domain.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

func (s *ProfileService) Create(ctx context.Context, ownerID string, in ProfileInput) (*domain.Profile, error) {
	in = in.normalized()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	p := &domain.Profile{OwnerID: ownerID}
	in.apply(p)
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) Get(ctx context.Context, id string) (*domain.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

func (s *ProfileService) List(ctx context.Context, filter domain.ProfileFilter) ([]domain.Profile, error) {
	return s.profiles.List(ctx, filter)
}

func (s *ProfileService) Update(ctx context.Context, actorID, id string, in ProfileInput) (*domain.Profile, error) {
	in = in.normalized()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	p, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.owned(ctx, actorID, id); err != nil {
		return err
	}
	return s.profiles.Delete(ctx, id)
}

func (s *ProfileService) owned(ctx context.Context, actorID, id string) (*domain.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, fmt.Errorf("%w: profile belongs to another user", domain.ErrForbidden)
	}
	return p, nil
}

func (in ProfileInput) normalized() ProfileInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Role = strings.TrimSpace(in.Role)
	in.Skills = cleanSkills(in.Skills)
	return in
}

func (in ProfileInput) apply(p *domain.Profile) {
	p.Name = in.Name
	p.Username = in.Username
	p.Role = in.Role
	p.Skills = in.Skills
	p.Phone = in.Phone
	p.Portfolio = in.Portfolio
	p.Location = in.Location
	p.Bio = in.Bio
}

// cleanSkills trims entries and drops blanks and case-insensitive duplicates.
func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, sk := range skills {
		sk = strings.TrimSpace(sk)
		key := strings.ToLower(sk)
		if sk == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sk)
	}
	return out
}
