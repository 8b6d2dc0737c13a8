package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"garment-backend/internal/models"
	"garment-backend/internal/repositories"
)

var ErrEmployeeInUse = errors.New("employee has production entries, advances or settlements and cannot be deleted")

type EmployeeService struct {
	Repo repositories.EmployeeStore
}

func NewEmployeeService(repo repositories.EmployeeStore) *EmployeeService {
	return &EmployeeService{Repo: repo}
}

func (s *EmployeeService) CreateEmployee(ctx context.Context, req *models.CreateEmployeeRequest) (*models.Employee, error) {
	employee := &models.Employee{
		Name:           strings.TrimSpace(req.Name),
		Phone:          strings.TrimSpace(req.Phone),
		EmploymentType: req.EmploymentType,
		RateType:       req.RateType,
		Department:     strings.TrimSpace(req.Department),
		IsActive:       true,
	}
	if employee.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if err := s.Repo.CreateEmployee(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *EmployeeService) GetEmployee(ctx context.Context, id int) (*models.Employee, error) {
	e, err := s.Repo.GetEmployee(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrEmployeeNotFound
	}
	return e, err
}

func (s *EmployeeService) ListEmployees(ctx context.Context) ([]*models.Employee, error) {
	employees, err := s.Repo.ListEmployees(ctx)
	if employees == nil && err == nil {
		employees = []*models.Employee{}
	}
	return employees, err
}

func (s *EmployeeService) UpdateEmployee(ctx context.Context, id int, req *models.UpdateEmployeeRequest) (*models.Employee, error) {
	employee := &models.Employee{
		ID:             id,
		Name:           strings.TrimSpace(req.Name),
		Phone:          strings.TrimSpace(req.Phone),
		EmploymentType: req.EmploymentType,
		RateType:       req.RateType,
		Department:     strings.TrimSpace(req.Department),
		IsActive:       req.IsActive,
	}

	if err := s.Repo.UpdateEmployee(ctx, employee); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	return employee, nil
}

// DeleteEmployee refuses while anything references the employee; deactivate instead
func (s *EmployeeService) DeleteEmployee(ctx context.Context, id int) error {
	err := s.Repo.DeleteEmployee(ctx, id)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrEmployeeNotFound
	case errors.Is(err, repositories.ErrInUse):
		return ErrEmployeeInUse
	}
	return err
}
