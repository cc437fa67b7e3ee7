package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/pkg/database"
	"github.com/guardlink/guardlink-backend/pkg/errors"
)

// ResultRepository handles verification result persistence
type ResultRepository struct {
	db *database.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *database.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Create persists a verification result. New records start PENDING.
func (r *ResultRepository) Create(ctx context.Context, result *domain.VerificationResult) error {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.DecisionStatus == "" {
		result.DecisionStatus = domain.DecisionPending
	}
	if result.VerifiedAt.IsZero() {
		result.VerifiedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO verification_results (
			id, agent_id, document_id, document_type,
			risk_score, risk_level, recommendation,
			report, decision_status, verified_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		result.ID, result.AgentID, result.DocumentID, result.DocumentType,
		result.RiskScore, result.RiskLevel, result.Recommendation,
		result.Report, result.DecisionStatus, result.VerifiedAt,
	).Scan(&result.CreatedAt)
}

// GetByID gets a verification result by ID
func (r *ResultRepository) GetByID(ctx context.Context, id string) (*domain.VerificationResult, error) {
	var result domain.VerificationResult

	query := `
		SELECT id, agent_id, document_id, document_type,
		       risk_score, risk_level, recommendation,
		       report, decision_status, decided_by, decision_notes, decided_at,
		       verified_at, created_at
		FROM verification_results
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &result, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("verification result")
	}
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ListPending lists results awaiting an admin decision, newest first
func (r *ResultRepository) ListPending(ctx context.Context, limit, offset int) ([]*domain.VerificationResult, error) {
	var results []*domain.VerificationResult

	query := `
		SELECT id, agent_id, document_id, document_type,
		       risk_score, risk_level, recommendation,
		       report, decision_status, decided_by, decision_notes, decided_at,
		       verified_at, created_at
		FROM verification_results
		WHERE decision_status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	if err := r.db.SelectContext(ctx, &results, query, domain.DecisionPending, limit, offset); err != nil {
		return nil, err
	}

	return results, nil
}

// Stats returns aggregate counts for the admin dashboard
func (r *ResultRepository) Stats(ctx context.Context) (*domain.VerificationStats, error) {
	var stats domain.VerificationStats

	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE decision_status = 'PENDING') AS pending,
		       COUNT(*) FILTER (WHERE decision_status = 'APPROVED') AS approved,
		       COUNT(*) FILTER (WHERE decision_status = 'REJECTED') AS rejected,
		       COUNT(*) FILTER (WHERE risk_level = 'HIGH') AS high_risk,
		       COUNT(*) FILTER (WHERE risk_level = 'CRITICAL') AS critical_risk
		FROM verification_results
	`

	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, err
	}

	return &stats, nil
}

// Decide records an admin approve/reject decision on a pending result.
// Deciding an already-decided result is a conflict.
func (r *ResultRepository) Decide(ctx context.Context, id string, status domain.DecisionStatus, decidedBy, notes string) error {
	query := `
		UPDATE verification_results
		SET decision_status = $1, decided_by = $2, decision_notes = $3, decided_at = $4
		WHERE id = $5 AND decision_status = $6
	`

	res, err := r.db.ExecContext(ctx, query,
		status, nullable(decidedBy), nullable(notes), time.Now().UTC(),
		id, domain.DecisionPending,
	)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Either missing or already decided; disambiguate for the caller
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return errors.Conflict("verification result already decided")
	}

	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
