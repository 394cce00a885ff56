package model

import "time"

// FailureStat is the per-project per-UTC-day failure counter. It is written
// incrementally by the aggregator and overwritten by the reconciliation roller;
// the last writer within a reconciliation cycle wins.
type FailureStat struct {
	ProjectID uint      `gorm:"primaryKey"`
	StatDate  time.Time `gorm:"primaryKey;type:date"`
	Count     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (FailureStat) TableName() string {
	return "failure_stats"
}
