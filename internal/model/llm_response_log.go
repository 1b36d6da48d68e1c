package model

import (
	"time"

	"gorm.io/datatypes"
)

// LLMResponseLog is one automation run's response, stored append-only.
type LLMResponseLog struct {
	ID          uint           `gorm:"primarykey" json:"-"`
	Timestamp   time.Time      `gorm:"not null" json:"timestamp"`
	Response    datatypes.JSON `gorm:"type:jsonb" json:"response"`
	RawResponse string         `gorm:"not null" json:"raw_response"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"-"`
}

func (LLMResponseLog) TableName() string {
	return "llm_responses"
}
