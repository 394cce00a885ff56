package repository

import (
	"gorm.io/gorm"
)

type Repository struct {
	TaskRepo        TaskRepository
	ProjectRepo     ProjectRepository
	ExecutionRepo   ExecutionRepository
	FailureStatRepo FailureStatRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		TaskRepo:        NewTaskRepository(db),
		ProjectRepo:     NewProjectRepository(db),
		ExecutionRepo:   NewExecutionRepository(db),
		FailureStatRepo: NewFailureStatRepository(db),
	}
}
