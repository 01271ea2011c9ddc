package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/skill-match/internal/domain"
	"github.com/msomdec/skill-match/internal/service"
)

func validProfileInput() service.ProfileInput {
	return service.ProfileInput{
		Name:     "Ada Lovelace",
		Username: "ada",
		Role:     "Backend Developer",
		Skills:   []string{"Go", " go ", "SQL", ""},
		Bio:      "Analytical engines",
	}
}

func TestProfileService_CreateAndOwnership(t *testing.T) {
	auth, db := newTestAuthService(t)
	owner := registerVerified(t, auth, db, "owner@example.com", "password123")
	other := registerVerified(t, auth, db, "other@example.com", "password123")
	svc := service.NewProfileService(db.Profiles())
	ctx := context.Background()

	p, err := svc.Create(ctx, owner.ID, validProfileInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(p.Skills) != 2 {
		t.Fatalf("expected skills deduplicated to 2, got %v", p.Skills)
	}

	in := validProfileInput()
	in.Bio = "Hijacked"
	if _, err := svc.Update(ctx, other.ID, p.ID, in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on update by non-owner, got %v", err)
	}
	if err := svc.Delete(ctx, other.ID, p.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on delete by non-owner, got %v", err)
	}

	in.Bio = "Updated"
	updated, err := svc.Update(ctx, owner.ID, p.ID, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Bio != "Updated" {
		t.Fatalf("expected bio updated, got %q", updated.Bio)
	}

	if err := svc.Delete(ctx, owner.ID, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileService_Validation(t *testing.T) {
	auth, db := newTestAuthService(t)
	owner := registerVerified(t, auth, db, "owner@example.com", "password123")
	svc := service.NewProfileService(db.Profiles())

	tests := []struct {
		name   string
		mutate func(*service.ProfileInput)
	}{
		{"missing name", func(in *service.ProfileInput) { in.Name = "" }},
		{"no skills", func(in *service.ProfileInput) { in.Skills = []string{" "} }},
		{"bad portfolio", func(in *service.ProfileInput) { in.Portfolio = "not a url" }},
		{"missing bio", func(in *service.ProfileInput) { in.Bio = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validProfileInput()
			tc.mutate(&in)
			if _, err := svc.Create(context.Background(), owner.ID, in); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestProfileService_DuplicateUsername(t *testing.T) {
	auth, db := newTestAuthService(t)
	owner := registerVerified(t, auth, db, "owner@example.com", "password123")
	svc := service.NewProfileService(db.Profiles())
	ctx := context.Background()

	if _, err := svc.Create(ctx, owner.ID, validProfileInput()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, owner.ID, validProfileInput()); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}
