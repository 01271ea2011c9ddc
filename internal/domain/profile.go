package domain

import (
	"context"
	"time"
)

// Profile is a user's public skills profile, shown when searching for teammates.
type Profile struct {
	ID        string
	OwnerID   string
	Name      string
	Username  string
	Role      string
	Skills    []string
	Phone     string
	Portfolio string
	Location  string
	Bio       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileFilter narrows profile listings. Empty fields match everything.
type ProfileFilter struct {
	Skill string // Case-insensitive exact skill match
	Role  string // Case-insensitive exact role match
	Query string // Substring match on name, username and bio
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	List(ctx context.Context, filter ProfileFilter) ([]Profile, error)
	Update(ctx context.Context, profile *Profile) error
	Delete(ctx context.Context, id string) error
}
