package access

import (
	"errors"
	"testing"

	"github.com/atmx/yield-farm/internal/model"
)

func TestRequireAdministrator(t *testing.T) {
	g := NewAdminGate("owner")

	tests := []struct {
		caller  model.Address
		wantErr bool
	}{
		{"owner", false},
		{"user", true},
		{"", true},
		{"OWNER", true},
	}
	for _, tt := range tests {
		err := g.RequireAdministrator(tt.caller)
		if tt.wantErr && !errors.Is(err, ErrUnauthorized) {
			t.Errorf("caller %q: expected ErrUnauthorized, got %v", tt.caller, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("caller %q: unexpected error %v", tt.caller, err)
		}
	}
}

func TestTransfer(t *testing.T) {
	g := NewAdminGate("owner")

	if err := g.Transfer("user", "user"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-admin transfer should fail, got %v", err)
	}
	if err := g.Transfer("owner", ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("transfer to empty admin should fail, got %v", err)
	}
	if err := g.Transfer("owner", "next"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Admin() != "next" {
		t.Errorf("expected admin=next, got %s", g.Admin())
	}
	if err := g.RequireAdministrator("owner"); err == nil {
		t.Error("previous admin should lose the capability")
	}
}

func TestGateFunc(t *testing.T) {
	deny := errors.New("denied")
	var seen model.Address
	g := GateFunc(func(c model.Address) error {
		seen = c
		return deny
	})

	if err := g.RequireAdministrator("x"); err != deny {
		t.Errorf("expected closure error, got %v", err)
	}
	if seen != "x" {
		t.Errorf("closure should receive caller, got %q", seen)
	}
}
