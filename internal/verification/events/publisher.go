package events

import (
	"context"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/pkg/logger"
	"github.com/guardlink/guardlink-backend/pkg/messaging"
)

// eventSender is the publishing surface; tests substitute a capture
type eventSender interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// VerificationEventPublisher publishes verification lifecycle events
type VerificationEventPublisher struct {
	publisher eventSender
	logger    *logger.Logger
}

// NewVerificationEventPublisher creates a new verification event publisher
func NewVerificationEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*VerificationEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeVerificationEvents, "verification-service", log)
	if err != nil {
		return nil, err
	}

	return &VerificationEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishCompleted publishes a verification completed event
func (p *VerificationEventPublisher) PublishCompleted(ctx context.Context, result *domain.VerificationResult) {
	data := messaging.VerificationCompletedEvent{
		VerificationID: result.ID,
		AgentID:        result.AgentID,
		DocumentID:     result.DocumentID,
		DocumentType:   string(result.DocumentType),
		RiskScore:      result.RiskScore,
		RiskLevel:      string(result.RiskLevel),
		Recommendation: string(result.Recommendation),
	}

	if err := p.publisher.Publish(ctx, messaging.EventVerificationCompleted, data); err != nil {
		p.logger.WithVerification(result.ID).Error().Err(err).Msg("failed to publish verification completed event")
	}
}

// PublishFlagged publishes a flagged event for verifications that
// recommend rejection
func (p *VerificationEventPublisher) PublishFlagged(ctx context.Context, result *domain.VerificationResult, reasons []string) {
	data := messaging.VerificationFlaggedEvent{
		VerificationID: result.ID,
		AgentID:        result.AgentID,
		DocumentID:     result.DocumentID,
		DocumentType:   string(result.DocumentType),
		RiskScore:      result.RiskScore,
		RiskLevel:      string(result.RiskLevel),
		Reasons:        reasons,
	}

	if err := p.publisher.Publish(ctx, messaging.EventVerificationFlagged, data); err != nil {
		p.logger.WithVerification(result.ID).Error().Err(err).Msg("failed to publish verification flagged event")
	}
}

// PublishApproved publishes an admin approval event
func (p *VerificationEventPublisher) PublishApproved(ctx context.Context, result *domain.VerificationResult) {
	p.publishDecision(ctx, messaging.EventVerificationApproved, result)
}

// PublishRejected publishes an admin rejection event
func (p *VerificationEventPublisher) PublishRejected(ctx context.Context, result *domain.VerificationResult) {
	p.publishDecision(ctx, messaging.EventVerificationRejected, result)
}

func (p *VerificationEventPublisher) publishDecision(ctx context.Context, eventType string, result *domain.VerificationResult) {
	data := messaging.VerificationDecisionEvent{
		VerificationID: result.ID,
		AgentID:        result.AgentID,
	}
	if result.DecidedBy != nil {
		data.DecidedBy = *result.DecidedBy
	}
	if result.DecisionNotes != nil {
		data.Notes = *result.DecisionNotes
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.WithVerification(result.ID).Error().Err(err).Msg("failed to publish verification decision event")
	}
}
