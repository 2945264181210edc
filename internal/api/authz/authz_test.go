package authz

import (
	"context"
	"errors"
	"testing"
)

func TestRequireRoleUnauthenticated(t *testing.T) {
	_, err := RequireRole(context.Background(), RoleCustomer)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		allowed []string
		wantErr error
	}{
		{"customer allowed", RoleCustomer, []string{RoleCustomer}, nil},
		{"owner rejected from customer route", RoleOwner, []string{RoleCustomer}, ErrForbidden},
		{"admin passes any check", RoleAdmin, []string{RoleOwner}, nil},
		{"any of several", RoleOwner, []string{RoleCustomer, RoleOwner}, nil},
		{"empty role", "", []string{RoleCustomer}, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithUser(context.Background(), &AuthUser{ID: 7, Role: tt.role})
			user, err := RequireRole(ctx, tt.allowed...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if user == nil || user.ID != 7 {
				t.Fatalf("expected user 7 back, got %+v", user)
			}
		})
	}
}

func TestRequireVenueOwner(t *testing.T) {
	tests := []struct {
		name    string
		user    *AuthUser
		ownerID int64
		wantErr error
	}{
		{"owner of venue", &AuthUser{ID: 3, Role: RoleOwner}, 3, nil},
		{"other owner", &AuthUser{ID: 4, Role: RoleOwner}, 3, ErrForbidden},
		{"customer", &AuthUser{ID: 3, Role: RoleCustomer}, 3, ErrForbidden},
		{"admin", &AuthUser{ID: 99, Role: RoleAdmin}, 3, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithUser(context.Background(), tt.user)
			_, err := RequireVenueOwner(ctx, tt.ownerID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNormalizeRole(t *testing.T) {
	tests := map[string]string{
		"Customer":  RoleCustomer,
		" OWNER ":   RoleOwner,
		"admin":     RoleAdmin,
		"superuser": "",
		"":          "",
	}
	for in, want := range tests {
		if got := NormalizeRole(in); got != want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUserFromContextNil(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	if UserFromContext(nil) != nil {
		t.Fatal("expected nil user for nil context")
	}
	if UserFromContext(context.Background()) != nil {
		t.Fatal("expected nil user for empty context")
	}
}
