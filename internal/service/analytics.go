package service

import (
	"context"
	"time"

	"csvpilot/internal/models"
	"csvpilot/internal/repository"
)

type AnalyticsService struct {
	repository *repository.AuditRepository
}

func NewAnalyticsService(repo *repository.AuditRepository) *AnalyticsService {
	return &AnalyticsService{repository: repo}
}

// Holds analytics summary data
type AnalyticsSummary struct {
	TotalAnalyses   int64                    `json:"total_analyses"`
	FreeAnalyses    int64                    `json:"free_analyses"`
	CreditAnalyses  int64                    `json:"credit_analyses"`
	ProAnalyses     int64                    `json:"pro_analyses"`
	AvgDurationMs   float64                  `json:"avg_duration_ms"`
	PurchasesByPlan []map[string]interface{} `json:"purchases_by_plan"`
}

// Retrieves analytics summary for a time range
func (s *AnalyticsService) GetSummary(ctx context.Context, from, to time.Time) (*AnalyticsSummary, error) {
	summary := &AnalyticsSummary{}

	total, err := s.repository.CountByTimeRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.TotalAnalyses = total

	purchases, err := s.repository.GetPurchasesByPlan(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.PurchasesByPlan = purchases

	if total == 0 {
		return summary, nil
	}

	summary.FreeAnalyses, _ = s.repository.CountBySource(ctx, models.SourceFree, from, to)
	summary.CreditAnalyses, _ = s.repository.CountBySource(ctx, models.SourceCredit, from, to)
	summary.ProAnalyses, _ = s.repository.CountBySource(ctx, models.SourcePro, from, to)

	avg, err := s.repository.GetAverageDuration(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.AvgDurationMs = avg

	return summary, nil
}

// Deletes logs older than specified retention period
func (s *AnalyticsService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	cutOffDate := time.Now().AddDate(0, 0, -retentionDays)
	return s.repository.DeleteOldLogs(ctx, cutOffDate)
}
