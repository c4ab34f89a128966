package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
)

// DepartmentService is read-only; departments are seeded at startup.
type DepartmentService struct {
	departments docstore.Collection
}

func NewDepartmentService(store docstore.Store) *DepartmentService {
	return &DepartmentService{departments: store.Collection(departmentsCollection)}
}

func (s *DepartmentService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	docs, err := s.departments.Query(ctx, docstore.Query{OrderBy: []docstore.Order{docstore.Asc("name")}})
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return decodeAll(docs, decodeDepartment)
}

// GetDepartment returns nil, nil when the department does not exist.
func (s *DepartmentService) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	doc, err := s.departments.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return decodeDepartment(doc)
}
