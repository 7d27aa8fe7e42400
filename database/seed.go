package database

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/team-educhange/gibo-api/model"
)

// SeedFile mirrors the YAML catalog the school administers by hand: teacher
// accounts with their credit grants, and the feedback projects each teacher
// has set up.
type SeedFile struct {
	Credentials struct {
		UserIDs map[string]SeedUser `yaml:"user_ids"`
	} `yaml:"credentials"`
	Projects []SeedProject `yaml:"projects"`
}

// SeedUser is one teacher account entry
type SeedUser struct {
	Name   string `yaml:"name"`
	Credit int    `yaml:"credit"`
}

// SeedProject is one catalog entry
type SeedProject struct {
	Creator        string `yaml:"creator"`
	Grade          string `yaml:"grade"`
	Subject        string `yaml:"subject"`
	ServiceName    string `yaml:"service_name"`
	ProjectName    string `yaml:"project_name"`
	PromptTemplate string `yaml:"prompt_template"`
	CreditCost     int    `yaml:"credit_cost"`
}

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// RunSeeds loads the seed file and applies it
func RunSeeds(db *gorm.DB, path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(body, &file); err != nil {
		return fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	seeder := NewSeeder(db)
	return seeder.SeedAll(file)
}

// SeedAll applies a parsed seed file
func (s *Seeder) SeedAll(file SeedFile) error {
	log.Println("Starting database seeding...")

	if err := s.SeedUsers(file.Credentials.UserIDs); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := s.SeedProjects(file.Projects); err != nil {
		return fmt.Errorf("failed to seed projects: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedUsers upserts teacher accounts. An existing account keeps its current
// balance; the seed file only sets the balance for new accounts, so re-running
// the seed never claws back spent credits.
func (s *Seeder) SeedUsers(users map[string]SeedUser) error {
	created := 0
	for userID, entry := range users {
		var count int64
		if err := s.db.Model(&model.User{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		user := &model.User{
			UserID: userID,
			Name:   entry.Name,
			Credit: entry.Credit,
		}
		if err := s.db.Create(user).Error; err != nil {
			return err
		}
		created++
	}

	log.Printf("Seeded %d new teacher accounts (%d in file)", created, len(users))
	return nil
}

// SeedProjects upserts the project catalog. Unlike accounts, projects are
// owned by the seed file: the template and cost follow whatever the file says.
func (s *Seeder) SeedProjects(projects []SeedProject) error {
	for _, entry := range projects {
		cost := entry.CreditCost
		if cost <= 0 {
			cost = 4
		}

		project := model.Project{
			ServiceName:    entry.ServiceName,
			ProjectName:    entry.ProjectName,
			Creator:        entry.Creator,
			Grade:          entry.Grade,
			Subject:        entry.Subject,
			PromptTemplate: entry.PromptTemplate,
			CreditCost:     cost,
			Active:         true,
		}

		err := s.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "service_name"}, {Name: "project_name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"creator", "grade", "subject", "prompt_template", "credit_cost", "active",
			}),
		}).Create(&project).Error
		if err != nil {
			return err
		}
	}

	log.Printf("Seeded %d projects", len(projects))
	return nil
}
