package repository

import (
	"context"
	"errors"

	"cronwatch/internal/model"
	"cronwatch/pkg/utils"

	"gorm.io/gorm"
)

var ErrTaskNotFound = errors.New("task not found")

type TaskRepository interface {
	ListActiveTasks(ctx context.Context, opts ...utils.DBOption) ([]model.Task, error)
	FindByID(ctx context.Context, id uint) (*model.Task, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) ListActiveTasks(ctx context.Context, opts ...utils.DBOption) ([]model.Task, error) {
	var tasks []model.Task
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("status = ?", model.TaskStatusActive).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}
