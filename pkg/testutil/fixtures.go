package testutil

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VerificationResultFixture represents test verification result data
type VerificationResultFixture struct {
	ID             string
	AgentID        string
	DocumentID     string
	DocumentType   string
	RiskScore      int
	RiskLevel      string
	Recommendation string
	Report         []byte
	DecisionStatus string
	VerifiedAt     time.Time
	CreatedAt      time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	counter int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

// VerificationResult creates a verification result fixture.
// Defaults describe a clean low-risk document; override fields as needed.
func (f *FixtureFactory) VerificationResult(overrides ...func(*VerificationResultFixture)) *VerificationResultFixture {
	f.counter++

	report, _ := json.Marshal(map[string]interface{}{
		"document_type": "id_card",
		"verdict": map[string]interface{}{
			"risk_score":     10,
			"risk_level":     "LOW",
			"recommendation": "APPROVE",
		},
	})

	fixture := &VerificationResultFixture{
		ID:             uuid.New().String(),
		AgentID:        fmt.Sprintf("agent-%d", f.counter),
		DocumentID:     fmt.Sprintf("doc-%d", f.counter),
		DocumentType:   "id_card",
		RiskScore:      10,
		RiskLevel:      "LOW",
		Recommendation: "APPROVE",
		Report:         report,
		DecisionStatus: "PENDING",
		VerifiedAt:     time.Now().UTC(),
		CreatedAt:      time.Now().UTC(),
	}

	for _, override := range overrides {
		override(fixture)
	}

	return fixture
}

// HighRisk marks a fixture as a high-risk rejection candidate
func HighRisk(fx *VerificationResultFixture) {
	fx.RiskScore = 85
	fx.RiskLevel = "CRITICAL"
	fx.Recommendation = "REJECT"
}

// Decided marks a fixture as already approved
func Decided(fx *VerificationResultFixture) {
	fx.DecisionStatus = "APPROVED"
}
