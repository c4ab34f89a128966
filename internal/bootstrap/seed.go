package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/services"
	"gopkg.in/yaml.v3"
)

// DepartmentSeed is one entry of the departments file. Keys other than id
// and name are stored as-is.
type DepartmentSeed struct {
	ID     string         `yaml:"id"`
	Name   string         `yaml:"name"`
	Fields map[string]any `yaml:",inline"`
}

type seedFile struct {
	Departments []DepartmentSeed `yaml:"departments"`
}

func LoadDepartments(path string) ([]DepartmentSeed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var problems []string
	seen := map[string]bool{}
	for i, d := range f.Departments {
		d.ID = strings.TrimSpace(d.ID)
		switch {
		case d.ID == "":
			problems = append(problems, fmt.Sprintf("departments[%d].id is required", i))
		case seen[d.ID]:
			problems = append(problems, fmt.Sprintf("departments[%d].id %q is duplicated", i, d.ID))
		}
		if strings.TrimSpace(d.Name) == "" {
			problems = append(problems, fmt.Sprintf("departments[%d].name is required", i))
		}
		seen[d.ID] = true
		f.Departments[i] = d
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid department seed %s: %s", path, strings.Join(problems, "; "))
	}
	return f.Departments, nil
}

// SeedDepartments upserts every department so reseeding is safe.
func SeedDepartments(ctx context.Context, store docstore.Store, seeds []DepartmentSeed) error {
	coll := store.Collection("departments")
	for _, d := range seeds {
		doc := docstore.Document{}
		for k, v := range d.Fields {
			doc[k] = v
		}
		doc["name"] = d.Name
		if err := coll.Set(ctx, d.ID, doc); err != nil {
			return fmt.Errorf("seed department %s: %w", d.ID, err)
		}
	}
	slog.Info("departments seeded", "count", len(seeds))
	return nil
}

type Admin struct {
	Email    string
	Password string
	Name     string
}

// SeedAdmin makes sure an administrator account and user record exist.
func SeedAdmin(ctx context.Context, accounts *identity.Service, users *services.UserService, admin Admin) error {
	account, err := accounts.Lookup(ctx, admin.Email)
	if errors.Is(err, identity.ErrAccountNotFound) {
		_, err = users.InviteUser(ctx, &dto.InviteUserRequest{
			Name:     admin.Name,
			Email:    admin.Email,
			Password: admin.Password,
			Role:     models.RoleAdmin,
		})
		if err != nil {
			return fmt.Errorf("invite admin: %w", err)
		}
		slog.Info("bootstrap admin created", "email", admin.Email)
		return nil
	}
	if err != nil {
		return err
	}

	existing, err := users.GetUser(ctx, account.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	_, err = users.CreateUser(ctx, &dto.CreateUserRequest{
		ID:    account.ID,
		Name:  admin.Name,
		Email: account.Email,
		Role:  models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("restore admin record: %w", err)
	}
	slog.Info("bootstrap admin record restored", "user_id", account.ID)
	return nil
}
