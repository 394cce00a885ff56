package model

import (
	"database/sql"
	"time"
)

type Project struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"type:varchar(255);not null"`
	WebhookURL sql.NullString
	CreatedAt  time.Time `gorm:"autoCreateTime"`

	Tasks []Task `gorm:"foreignKey:ProjectID"`
}

func (Project) TableName() string {
	return "projects"
}
