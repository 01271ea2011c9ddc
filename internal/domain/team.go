package domain

import (
	"context"
	"time"
)

// Team categories, roles and types accepted by the API.
var (
	TeamCategories = []string{"Web Development", "Data Science", "AI & ML", "Cybersecurity", "Blockchain"}
	TeamRoles      = []string{"Frontend Developer", "Backend Developer", "Data Analyst", "Project Manager"}
	TeamTypes      = []string{"Hackathon Team", "Startup Team", "Research Group", "Freelance Team"}
)

// Team is a project team looking for members.
type Team struct {
	ID          string
	OwnerID     string
	Owner       TeamOwner // Populated on reads
	Name        string
	Category    string
	Role        string
	TeamType    string
	Skills      []string
	TeamSize    int
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TeamOwner is the public summary of the user who created a team.
type TeamOwner struct {
	ID    string
	Name  string
	Email string
}

type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, id string) (*Team, error)
	List(ctx context.Context) ([]Team, error)
	Update(ctx context.Context, team *Team) error
	Delete(ctx context.Context, id string) error
}
