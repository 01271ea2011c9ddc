package handler

import (
	"time"

	"github.com/msomdec/skill-match/internal/domain"
	"github.com/msomdec/skill-match/internal/service"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
	CreatedAt  string `json:"createdAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		IsVerified: u.IsVerified(),
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
	}
}

// MessageDTO is one history entry from the caller's point of view.
type MessageDTO struct {
	FromSelf   bool   `json:"fromSelf"`
	Message    string `json:"message"`
	Attachment string `json:"attachment,omitempty"`
	Timestamp  string `json:"timestamp"`
}

func toMessageDTOs(views []service.MessageView) []MessageDTO {
	dtos := make([]MessageDTO, len(views))
	for i, v := range views {
		dtos[i] = MessageDTO{
			FromSelf:   v.FromSelf,
			Message:    v.Message,
			Attachment: v.Attachment,
			Timestamp:  v.Timestamp.Format(time.RFC3339Nano),
		}
	}
	return dtos
}

// ProfileDTO is the JSON representation of a profile.
type ProfileDTO struct {
	ID        string   `json:"id"`
	UserID    string   `json:"userId"`
	Name      string   `json:"name"`
	Username  string   `json:"username"`
	Role      string   `json:"role"`
	Skills    []string `json:"skills"`
	Phone     string   `json:"phone,omitempty"`
	Portfolio string   `json:"portfolio,omitempty"`
	Location  string   `json:"location,omitempty"`
	Bio       string   `json:"bio"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

func toProfileDTO(p *domain.Profile) ProfileDTO {
	return ProfileDTO{
		ID:        p.ID,
		UserID:    p.OwnerID,
		Name:      p.Name,
		Username:  p.Username,
		Role:      p.Role,
		Skills:    nonNil(p.Skills),
		Phone:     p.Phone,
		Portfolio: p.Portfolio,
		Location:  p.Location,
		Bio:       p.Bio,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

func toProfileDTOs(profiles []domain.Profile) []ProfileDTO {
	dtos := make([]ProfileDTO, len(profiles))
	for i := range profiles {
		dtos[i] = toProfileDTO(&profiles[i])
	}
	return dtos
}

// TeamOwnerDTO is the public summary of a team's creator.
type TeamOwnerDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TeamDTO is the JSON representation of a team.
type TeamDTO struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Role        string       `json:"role"`
	TeamType    string       `json:"teamType"`
	Skills      []string     `json:"skills"`
	TeamSize    int          `json:"teamSize"`
	Description string       `json:"description,omitempty"`
	CreatedBy   TeamOwnerDTO `json:"createdBy"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
}

func toTeamDTO(t *domain.Team) TeamDTO {
	return TeamDTO{
		ID:          t.ID,
		Name:        t.Name,
		Category:    t.Category,
		Role:        t.Role,
		TeamType:    t.TeamType,
		Skills:      nonNil(t.Skills),
		TeamSize:    t.TeamSize,
		Description: t.Description,
		CreatedBy:   TeamOwnerDTO{ID: t.Owner.ID, Name: t.Owner.Name, Email: t.Owner.Email},
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

func toTeamDTOs(teams []domain.Team) []TeamDTO {
	dtos := make([]TeamDTO, len(teams))
	for i := range teams {
		dtos[i] = toTeamDTO(&teams[i])
	}
	return dtos
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
