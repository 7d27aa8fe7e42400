package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/team-educhange/gibo-api/model"
)

// ProjectService resolves projects from the database catalog
type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

// Find returns the active project for the service/project pair
func (p *ProjectService) Find(ctx context.Context, serviceName, projectName string) (*ProjectInfo, error) {
	var project model.Project
	err := p.db.WithContext(ctx).
		Where("service_name = ? AND project_name = ? AND active = ?", serviceName, projectName, true).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoProject
		}
		return nil, fmt.Errorf("failed to look up project: %w", err)
	}

	return &ProjectInfo{
		ServiceName:    project.ServiceName,
		ProjectName:    project.ProjectName,
		PromptTemplate: project.PromptTemplate,
		CreditCost:     project.CreditCost,
	}, nil
}

// ListByService returns the active project names offered under a service
func (p *ProjectService) ListByService(ctx context.Context, serviceName string) ([]string, error) {
	var names []string
	err := p.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("service_name = ? AND active = ?", serviceName, true).
		Order("project_name").
		Pluck("project_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return names, nil
}
