package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/credit-scorer/internal/types"
)

// RecordAssessment persists the outcome of one processed application. The
// probability column is left NULL when the result carries no explanation
// (degraded scoring path).
func (db *DB) RecordAssessment(ctx context.Context, result *types.ApplicationResult) error {
	if result == nil {
		return fmt.Errorf("assessment result is nil")
	}

	var probability *float64
	if result.Assessment != nil {
		probability = &result.Assessment.Probability
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO assessments (application_id, borrower_id, credit_score, probability,
		                          traditional_score, alternative_score, decision, compliant)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		result.ApplicationID, result.BorrowerID, result.EnhancedScore, probability,
		result.TraditionalScore, result.AlternativeScore, result.Decision, result.Compliant,
	)
	if err != nil {
		return fmt.Errorf("failed to record assessment: %w", err)
	}
	return nil
}

// GetAssessment retrieves a stored assessment by ID. Returns nil when it
// does not exist.
func (db *DB) GetAssessment(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	var a Assessment
	err := db.pool.QueryRow(ctx,
		`SELECT id, application_id, borrower_id, credit_score, probability,
		        traditional_score, alternative_score, decision, compliant, created_at
		 FROM assessments WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.ApplicationID, &a.BorrowerID, &a.CreditScore, &a.Probability,
		&a.TraditionalScore, &a.AlternativeScore, &a.Decision, &a.Compliant, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return &a, nil
}

// ListAssessments retrieves recent assessments, newest first
func (db *DB) ListAssessments(ctx context.Context, limit int) ([]Assessment, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, application_id, borrower_id, credit_score, probability,
		        traditional_score, alternative_score, decision, compliant, created_at
		 FROM assessments ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var assessments []Assessment
	for rows.Next() {
		var a Assessment
		if err := rows.Scan(&a.ID, &a.ApplicationID, &a.BorrowerID, &a.CreditScore, &a.Probability,
			&a.TraditionalScore, &a.AlternativeScore, &a.Decision, &a.Compliant, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		assessments = append(assessments, a)
	}
	return assessments, nil
}
