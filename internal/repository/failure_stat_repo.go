package repository

import (
	"context"
	"errors"

	"time"

	"cronwatch/internal/model"
	"cronwatch/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FailureStatRepository interface {
	IncrementFailureStat(ctx context.Context, projectID uint, date time.Time) error
	UpsertFailureStat(ctx context.Context, projectID uint, date time.Time, total int64) error
	GetFailureStat(ctx context.Context, projectID uint, date time.Time) (int64, error)
}

type failureStatRepository struct {
	db *gorm.DB
}

func NewFailureStatRepository(db *gorm.DB) FailureStatRepository {
	return &failureStatRepository{db: db}
}

// IncrementFailureStat adds one to the (project, date) counter as a single
// commutative upsert, so concurrent increments for the same key never race.
func (r *failureStatRepository) IncrementFailureStat(ctx context.Context, projectID uint, date time.Time) error {
	stat := model.FailureStat{
		ProjectID: projectID,
		StatDate:  utils.DateUTC(date),
		Count:     1,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "project_id"}, {Name: "stat_date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count":      gorm.Expr("failure_stats.count + 1"),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&stat).Error
}

// UpsertFailureStat overwrites the counter with a recomputed total.
func (r *failureStatRepository) UpsertFailureStat(ctx context.Context, projectID uint, date time.Time, total int64) error {
	stat := model.FailureStat{
		ProjectID: projectID,
		StatDate:  utils.DateUTC(date),
		Count:     total,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "project_id"}, {Name: "stat_date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count":      total,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&stat).Error
}

func (r *failureStatRepository) GetFailureStat(ctx context.Context, projectID uint, date time.Time) (int64, error) {
	var stat model.FailureStat
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND stat_date = ?", projectID, utils.DateUTC(date)).
		First(&stat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return stat.Count, nil
}
