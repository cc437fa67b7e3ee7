package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/pkg/logger"
	"github.com/guardlink/guardlink-backend/pkg/messaging"
	"github.com/guardlink/guardlink-backend/pkg/testutil"
)

func newTestPublisher() (*VerificationEventPublisher, *testutil.MockPublisher) {
	mock := testutil.NewMockPublisher()
	return &VerificationEventPublisher{
		publisher: mock,
		logger:    logger.New("test", "test"),
	}, mock
}

func sampleResult() *domain.VerificationResult {
	return &domain.VerificationResult{
		ID:             "ver-1",
		AgentID:        "agent-1",
		DocumentID:     "doc-1",
		DocumentType:   domain.DocumentTypePassport,
		RiskScore:      72,
		RiskLevel:      domain.RiskCritical,
		Recommendation: domain.RecommendReject,
	}
}

func TestPublishCompleted(t *testing.T) {
	publisher, mock := newTestPublisher()

	publisher.PublishCompleted(context.Background(), sampleResult())

	mock.AssertEventPublished(t, messaging.EventVerificationCompleted)
	require.Len(t, mock.PublishedEvents, 1)

	data, ok := mock.PublishedEvents[0].Payload.(messaging.VerificationCompletedEvent)
	require.True(t, ok, "payload is %T", mock.PublishedEvents[0].Payload)
	assert.Equal(t, "ver-1", data.VerificationID)
	assert.Equal(t, "agent-1", data.AgentID)
	assert.Equal(t, "passport", data.DocumentType)
	assert.Equal(t, 72, data.RiskScore)
	assert.Equal(t, "CRITICAL", data.RiskLevel)
	assert.Equal(t, "REJECT", data.Recommendation)
}

func TestPublishFlagged(t *testing.T) {
	publisher, mock := newTestPublisher()

	reasons := []string{"image tampering detected (+50)", "no camera metadata (+15)"}
	publisher.PublishFlagged(context.Background(), sampleResult(), reasons)

	mock.AssertEventPublished(t, messaging.EventVerificationFlagged)
	require.Len(t, mock.PublishedEvents, 1)

	data, ok := mock.PublishedEvents[0].Payload.(messaging.VerificationFlaggedEvent)
	require.True(t, ok, "payload is %T", mock.PublishedEvents[0].Payload)
	assert.Equal(t, reasons, data.Reasons)
	assert.Equal(t, 72, data.RiskScore)
}

func TestPublishDecisions(t *testing.T) {
	publisher, mock := newTestPublisher()

	result := sampleResult()
	decidedBy := "admin-1"
	notes := "double-checked against the registry"
	result.DecidedBy = &decidedBy
	result.DecisionNotes = &notes

	publisher.PublishApproved(context.Background(), result)
	publisher.PublishRejected(context.Background(), result)

	mock.AssertEventPublished(t, messaging.EventVerificationApproved)
	mock.AssertEventPublished(t, messaging.EventVerificationRejected)
	require.Len(t, mock.PublishedEvents, 2)

	data, ok := mock.PublishedEvents[0].Payload.(messaging.VerificationDecisionEvent)
	require.True(t, ok, "payload is %T", mock.PublishedEvents[0].Payload)
	assert.Equal(t, "admin-1", data.DecidedBy)
	assert.Equal(t, notes, data.Notes)
}

func TestPublishDecision_NilPointerFields(t *testing.T) {
	publisher, mock := newTestPublisher()

	publisher.PublishApproved(context.Background(), sampleResult())

	require.Len(t, mock.PublishedEvents, 1)
	data, ok := mock.PublishedEvents[0].Payload.(messaging.VerificationDecisionEvent)
	require.True(t, ok, "payload is %T", mock.PublishedEvents[0].Payload)
	assert.Empty(t, data.DecidedBy)
	assert.Empty(t, data.Notes)
}
