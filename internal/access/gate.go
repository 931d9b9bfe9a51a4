// Package access provides the capability checks the farm injects to restrict
// privileged operations (reward funding and rate changes) to a single
// administrative identity.
//
// The farm depends only on the RequireAdministrator method, so any policy
// (a fixed admin, a rotating admin, a closure in tests) can be plugged in.
package access

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atmx/yield-farm/internal/model"
)

// ErrUnauthorized is returned when the caller lacks the administrator capability.
var ErrUnauthorized = errors.New("access: caller is not the administrator")

// AdminGate grants the administrator capability to exactly one address.
// The administrator may hand the role over with Transfer.
type AdminGate struct {
	mu    sync.RWMutex
	admin model.Address
}

// NewAdminGate creates a gate for admin.
func NewAdminGate(admin model.Address) *AdminGate {
	return &AdminGate{admin: admin}
}

// Admin returns the current administrator.
func (g *AdminGate) Admin() model.Address {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.admin
}

// RequireAdministrator fails with ErrUnauthorized unless caller is the admin.
func (g *AdminGate) RequireAdministrator(caller model.Address) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if caller == "" || caller != g.admin {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	return nil
}

// Transfer hands the administrator role to next. Only the current admin may
// do so.
func (g *AdminGate) Transfer(caller, next model.Address) error {
	if err := g.RequireAdministrator(caller); err != nil {
		return err
	}
	if next == "" {
		return fmt.Errorf("%w: empty administrator", ErrUnauthorized)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.admin = next
	return nil
}

// GateFunc adapts a plain function to the farm's authority interface.
type GateFunc func(caller model.Address) error

// RequireAdministrator calls f(caller).
func (f GateFunc) RequireAdministrator(caller model.Address) error {
	return f(caller)
}
