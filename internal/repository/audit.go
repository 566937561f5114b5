package repository

import (
	"context"
	"time"

	"csvpilot/internal/models"
	"csvpilot/internal/storage"
)

type AuditRepository struct {
	db *storage.Postgres
}

func NewAuditRepository(db *storage.Postgres) *AuditRepository {
	return &AuditRepository{db: db}
}

// Inserts multiple analysis logs (for batch insertion)
func (r *AuditRepository) CreateBatch(ctx context.Context, logs []models.AnalysisLog) error {
	if len(logs) == 0 {
		return nil
	}

	return r.db.DB.WithContext(ctx).Create(&logs).Error
}

func (r *AuditRepository) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	return r.db.DB.WithContext(ctx).Create(purchase).Error
}

// Counts analyses in a time range
func (r *AuditRepository) CountByTimeRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64

	err := r.db.DB.WithContext(ctx).
		Model(&models.AnalysisLog{}).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Count(&count).Error

	return count, err
}

// Counts analyses admitted through a given entitlement source
func (r *AuditRepository) CountBySource(ctx context.Context, source string, from, to time.Time) (int64, error) {
	var count int64

	err := r.db.DB.WithContext(ctx).
		Model(&models.AnalysisLog{}).
		Where("source = ? AND timestamp BETWEEN ? AND ?", source, from, to).
		Count(&count).Error

	return count, err
}

// Calculates average end-to-end analysis duration
func (r *AuditRepository) GetAverageDuration(ctx context.Context, from, to time.Time) (float64, error) {
	var avg float64

	err := r.db.DB.WithContext(ctx).
		Model(&models.AnalysisLog{}).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Select("COALESCE(AVG(duration_ms), 0)").
		Scan(&avg).Error

	return avg, err
}

// Returns checkout attempt counts grouped by plan
func (r *AuditRepository) GetPurchasesByPlan(ctx context.Context, from, to time.Time) ([]map[string]interface{}, error) {
	var results []map[string]interface{}

	rows, err := r.db.DB.WithContext(ctx).
		Model(&models.Purchase{}).
		Select("plan, COUNT(*) as count").
		Where("created_at BETWEEN ? AND ?", from, to).
		Group("plan").
		Order("count DESC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var plan string
		var count int64

		if err := rows.Scan(&plan, &count); err != nil {
			return nil, err
		}

		results = append(results, map[string]interface{}{
			"plan":  plan,
			"count": count,
		})
	}

	return results, nil
}

// Deletes analysis logs older than the specified time
func (r *AuditRepository) DeleteOldLogs(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("timestamp < ?", before).
		Delete(&models.AnalysisLog{})

	return result.RowsAffected, result.Error
}
