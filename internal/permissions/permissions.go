// Package permissions derives a user's capability set from their role.
package permissions

import (
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
)

var ErrUnknownRole = errors.New("unknown role")

// Derive returns the full permission set for role. The result replaces any
// stored set; it is never merged.
func Derive(role models.Role) (models.Permissions, error) {
	switch role {
	case models.RoleAdmin:
		return models.Permissions{
			CanViewUsers:         true,
			CanEditUsers:         true,
			CanDeleteUsers:       true,
			CanCreateUsers:       true,
			CanViewDepartments:   true,
			CanEditDepartments:   true,
			CanDeleteDepartments: true,
			CanCreateDepartments: true,
		}, nil
	case models.RoleHRManager:
		return models.Permissions{
			CanViewUsers:       true,
			CanEditUsers:       true,
			CanCreateUsers:     true,
			CanViewDepartments: true,
		}, nil
	case models.RoleInterviewer:
		return models.Permissions{}, nil
	}
	return models.Permissions{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
}
