package models

import (
	"time"
)

// Source values for AnalysisLog.Source
const (
	SourcePro    = "pro"
	SourceCredit = "credit"
	SourceFree   = "free"
)

// Represents one admitted analysis request
type AnalysisLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Timestamp  time.Time `gorm:"index" json:"timestamp"`
	VisitorID  string    `gorm:"index" json:"visitor_id"`
	Filename   string    `json:"filename"`
	RowCount   int       `json:"row_count"`
	ColCount   int       `json:"col_count"`
	Source     string    `gorm:"index" json:"source"` // "pro" "credit" "free"
	StatusCode int       `gorm:"index" json:"status_code"`
	DurationMs int       `json:"duration_ms"`
	IPAddress  string    `json:"ip_address"`
}

func (AnalysisLog) TableName() string {
	return "analysis_logs"
}
