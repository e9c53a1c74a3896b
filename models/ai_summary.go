package models

import (
	"time"
)

// AISummary AI 生成的月度财务总结
type AISummary struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"not null;index:idx_ai_summary_period"`
	Month     int       `json:"month" gorm:"not null;index:idx_ai_summary_period"`
	Year      int       `json:"year" gorm:"not null;index:idx_ai_summary_period"`
	Model     string    `json:"model" gorm:"size:100;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt"`
}

func (AISummary) TableName() string {
	return "ai_summaries"
}
