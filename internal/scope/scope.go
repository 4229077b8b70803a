// Package scope computes the visibility filter for a requester. Every read
// and list operation narrows its result set through a resolved Scope instead
// of performing ad-hoc ownership checks.
package scope

import (
	"context"
	"fmt"

	"github.com/campushub/activity-portal-api/internal/models"
)

// Identity is the authenticated tuple carried by every request. It is
// extracted from verified JWT claims by the auth middleware and trusted
// as-is below that layer.
type Identity struct {
	ID         uint
	Role       models.Role
	Department string
	Class      string
	Semester   *int
}

// Scope is the set of activity owners a requester may see: either
// unrestricted, or an explicit set of eligible student IDs.
type Scope struct {
	Unrestricted bool
	StudentIDs   []uint
}

// Contains reports whether the given student falls inside the scope.
func (s Scope) Contains(studentID uint) bool {
	if s.Unrestricted {
		return true
	}
	for _, id := range s.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// StudentDirectory is the slice of the user store the resolver needs.
type StudentDirectory interface {
	ListStudentIDs(ctx context.Context, department, class string) ([]uint, error)
}

// Resolver derives a Scope from a requester identity.
type Resolver struct {
	directory StudentDirectory
}

// NewResolver constructs a Resolver backed by the given directory.
func NewResolver(directory StudentDirectory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve computes the visibility scope for the requester.
//
// Students see only themselves. Teachers see students in their department,
// narrowed to their class when one is assigned; a teacher without a class
// sees the whole department. Superadmins are unrestricted.
func (r *Resolver) Resolve(ctx context.Context, requester Identity) (Scope, error) {
	switch requester.Role {
	case models.RoleStudent:
		return Scope{StudentIDs: []uint{requester.ID}}, nil
	case models.RoleTeacher:
		ids, err := r.directory.ListStudentIDs(ctx, requester.Department, requester.Class)
		if err != nil {
			return Scope{}, fmt.Errorf("resolve teacher scope: %w", err)
		}
		return Scope{StudentIDs: ids}, nil
	case models.RoleSuperadmin:
		return Scope{Unrestricted: true}, nil
	default:
		return Scope{}, fmt.Errorf("unknown role %q", requester.Role)
	}
}
