package messages

import (
	"time"

	"github.com/jordanhubbard/strata/pkg/models"
)

// ExperienceBatchMessage is a batch of experience records published by an
// upstream producer for one learning cycle.
type ExperienceBatchMessage struct {
	Type          string                    `json:"type"` // "experiences.batch"
	BatchID       string                    `json:"batch_id"`
	Mode          models.Mode               `json:"mode"`
	Source        string                    `json:"source"` // producing agent/service
	Experiences   []models.ExperienceRecord `json:"experiences"`
	CorrelationID string                    `json:"correlation_id,omitempty"`
	Timestamp     time.Time                 `json:"timestamp"`
}

// NewExperienceBatch creates an experiences.batch message.
func NewExperienceBatch(batchID string, mode models.Mode, source string, experiences []models.ExperienceRecord, correlationID string) *ExperienceBatchMessage {
	return &ExperienceBatchMessage{
		Type:          "experiences.batch",
		BatchID:       batchID,
		Mode:          mode,
		Source:        source,
		Experiences:   experiences,
		CorrelationID: correlationID,
		Timestamp:     time.Now(),
	}
}

// ResultMessage wraps a learning result for transport back to consumers.
type ResultMessage struct {
	Type          string                 `json:"type"` // "learn.completed", "learn.failed"
	BatchID       string                 `json:"batch_id"`
	Mode          models.Mode            `json:"mode"`
	Result        *models.LearningResult `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// LearnCompleted creates a learn.completed message.
func LearnCompleted(batchID string, mode models.Mode, result *models.LearningResult, correlationID string) *ResultMessage {
	return &ResultMessage{
		Type:          "learn.completed",
		BatchID:       batchID,
		Mode:          mode,
		Result:        result,
		CorrelationID: correlationID,
		Timestamp:     time.Now(),
	}
}

// LearnFailed creates a learn.failed message.
func LearnFailed(batchID string, mode models.Mode, err error, correlationID string) *ResultMessage {
	msg := &ResultMessage{
		Type:          "learn.failed",
		BatchID:       batchID,
		Mode:          mode,
		CorrelationID: correlationID,
		Timestamp:     time.Now(),
	}
	if err != nil {
		msg.Error = err.Error()
	}
	return msg
}
