package service

import (
	"context"
	"log"
	"time"

	"csvpilot/internal/models"
	"csvpilot/internal/repository"
)

// AuditService records admitted analyses and checkout attempts without
// blocking the request path. Analysis rows are batched through a buffered
// channel; a full channel drops the row rather than stalling a visitor.
type AuditService struct {
	repository *repository.AuditRepository
	logChannel chan models.AnalysisLog
}

func NewAuditService(repo *repository.AuditRepository, bufferSize int) *AuditService {
	s := &AuditService{
		repository: repo,
		logChannel: make(chan models.AnalysisLog, bufferSize),
	}

	// Background worker to batch insert logs
	go func() {
		batch := make([]models.AnalysisLog, 0, 100)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case entry := <-s.logChannel:
				batch = append(batch, entry)

				if len(batch) >= 100 {
					s.insertBatch(batch)
					batch = make([]models.AnalysisLog, 0, 100)
				}
			case <-ticker.C:
				if len(batch) > 0 {
					s.insertBatch(batch)
					batch = make([]models.AnalysisLog, 0, 100)
				}
			}
		}
	}()

	return s
}

func (s *AuditService) insertBatch(batch []models.AnalysisLog) {
	if err := s.repository.CreateBatch(context.Background(), batch); err != nil {
		log.Printf("Failed to insert analysis logs: %v", err)
	}
}

// RecordAnalysis queues one analysis row for insertion
func (s *AuditService) RecordAnalysis(entry models.AnalysisLog) {
	select {
	case s.logChannel <- entry:
	default:
		log.Println("Analysis log channel full, skipping entry")
	}
}

// RecordPurchase writes a checkout attempt row synchronously - purchases
// are rare enough that batching isn't worth it
func (s *AuditService) RecordPurchase(ctx context.Context, purchase *models.Purchase) {
	if err := s.repository.CreatePurchase(ctx, purchase); err != nil {
		log.Printf("Failed to record purchase: %v", err)
	}
}

// Repository exposes the underlying repository for analytics queries
func (s *AuditService) Repository() *repository.AuditRepository {
	return s.repository
}
