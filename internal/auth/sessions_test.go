package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/revisehub/revisehub/internal/auth"
	"github.com/revisehub/revisehub/internal/platform/errs"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    auth.Role
		wantErr bool
	}{
		{"student", auth.RoleStudent, false},
		{"teacher", auth.RoleTeacher, false},
		{"parent", auth.RoleParent, false},
		{"admin", "", true},
		{"Student", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := auth.ParseRole(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errs.ErrInvalidInput) {
					t.Errorf("ParseRole(%q) error = %v, want ErrInvalidInput", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseRole(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestSignInAndResolve(t *testing.T) {
	m := auth.NewManager(auth.ManagerConfig{})

	u, token, err := m.SignIn(t.Context(), "amara@example.com", "Amara", "")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if u.Role != auth.RoleStudent {
		t.Errorf("new account role = %s, want student", u.Role)
	}
	if token == "" {
		t.Fatal("SignIn() returned empty token")
	}

	got, err := m.Resolve(t.Context(), token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.ID != u.ID || got.Email != u.Email {
		t.Errorf("Resolve() = %+v, want %+v", got, u)
	}
}

func TestSignIn_ExistingAccountKeepsRole(t *testing.T) {
	m := auth.NewManager(auth.ManagerConfig{})

	u, _, err := m.SignIn(t.Context(), "kofi@example.com", "Kofi", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.UpdateRole(t.Context(), u.ID, auth.RoleTeacher, ""); err != nil {
		t.Fatal(err)
	}

	again, _, err := m.SignIn(t.Context(), "kofi@example.com", "Kofi A.", "pic.png")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != u.ID {
		t.Errorf("second sign-in created a new account: %s vs %s", again.ID, u.ID)
	}
	if again.Role != auth.RoleTeacher {
		t.Errorf("role after second sign-in = %s, want teacher", again.Role)
	}
	if again.Name != "Kofi A." {
		t.Errorf("name not refreshed: %s", again.Name)
	}
}

func TestResolve_Rejections(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := now
	m := auth.NewManager(auth.ManagerConfig{
		TTL: time.Hour,
		Now: func() time.Time { return clock },
	})

	_, token, err := m.SignIn(t.Context(), "amara@example.com", "Amara", "")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("empty token", func(t *testing.T) {
		if _, err := m.Resolve(t.Context(), ""); !errors.Is(err, errs.ErrUnauthenticated) {
			t.Errorf("error = %v, want ErrUnauthenticated", err)
		}
	})
	t.Run("unknown token", func(t *testing.T) {
		if _, err := m.Resolve(t.Context(), "bogus"); !errors.Is(err, errs.ErrUnauthenticated) {
			t.Errorf("error = %v, want ErrUnauthenticated", err)
		}
	})
	t.Run("expired token", func(t *testing.T) {
		clock = now.Add(2 * time.Hour)
		defer func() { clock = now }()
		if _, err := m.Resolve(t.Context(), token); !errors.Is(err, errs.ErrUnauthenticated) {
			t.Errorf("error = %v, want ErrUnauthenticated", err)
		}
	})
	t.Run("revoked token", func(t *testing.T) {
		if err := m.Revoke(t.Context(), token); err != nil {
			t.Fatal(err)
		}
		if _, err := m.Resolve(t.Context(), token); !errors.Is(err, errs.ErrUnauthenticated) {
			t.Errorf("error = %v, want ErrUnauthenticated", err)
		}
	})
}

func TestUpdateRole(t *testing.T) {
	m := auth.NewManager(auth.ManagerConfig{})
	u, _, err := m.SignIn(t.Context(), "amara@example.com", "Amara", "")
	if err != nil {
		t.Fatal(err)
	}

	updated, err := m.UpdateRole(t.Context(), u.ID, auth.RoleStudent, "Year6")
	if err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}
	if updated.Grade != "Year6" {
		t.Errorf("grade = %s, want Year6", updated.Grade)
	}

	updated, err = m.UpdateRole(t.Context(), u.ID, auth.RoleParent, "Year6")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Grade != "" {
		t.Errorf("grade on parent account = %q, want empty", updated.Grade)
	}

	if _, err := m.UpdateRole(t.Context(), u.ID, "admin", ""); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("UpdateRole(admin) error = %v, want ErrInvalidInput", err)
	}
}

func TestRequireRole(t *testing.T) {
	teacher := auth.User{ID: "user_1", Role: auth.RoleTeacher}

	if err := auth.RequireRole(teacher, auth.RoleTeacher); err != nil {
		t.Errorf("RequireRole(teacher, teacher) = %v, want nil", err)
	}
	if err := auth.RequireRole(teacher, auth.RoleStudent, auth.RoleParent); !errs.Forbidden(err) {
		t.Errorf("RequireRole(teacher, student|parent) = %v, want ErrForbidden", err)
	}
}
