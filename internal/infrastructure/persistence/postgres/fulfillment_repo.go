package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/planvault/degree-audit/internal/domain/plan"
	"github.com/planvault/degree-audit/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FULFILLMENT REPOSITORY IMPLEMENTATION
// The assigner's clear-then-rebuild cycle runs in one transaction: deleting
// the old set and bulk-inserting the new one either both happen or neither
// does, so a failed recompute never leaves a half-cleared plan.
// ══════════════════════════════════════════════════════════════════════════════

// FulfillmentRepository implements plan.FulfillmentRepository for PostgreSQL.
type FulfillmentRepository struct {
	conn *Connection
}

// NewFulfillmentRepository creates a new FulfillmentRepository.
func NewFulfillmentRepository(conn *Connection) *FulfillmentRepository {
	return &FulfillmentRepository{conn: conn}
}

// GetByPlanProgramID returns all fulfillments for one program link.
func (r *FulfillmentRepository) GetByPlanProgramID(ctx context.Context, planProgramID string) ([]plan.Fulfillment, error) {
	query := `
		SELECT id, plan_program_id, requirement_key, planned_course_id, credits_applied, created_at
		FROM fulfillments
		WHERE plan_program_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.conn.Query(ctx, query, planProgramID)
	if err != nil {
		return nil, shared.WrapError("plan", "GetFulfillments", shared.ErrStoreUnavailable, "query failed", err)
	}
	defer rows.Close()

	var records []plan.Fulfillment
	for rows.Next() {
		var f plan.Fulfillment
		if err := rows.Scan(&f.ID, &f.PlanProgramID, &f.RequirementKey, &f.PlannedCourseID, &f.CreditsApplied, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fulfillment row: %w", err)
		}
		records = append(records, f)
	}
	return records, rows.Err()
}

// ReplaceForPlanPrograms atomically swaps the fulfillment set of the given
// program links.
func (r *FulfillmentRepository) ReplaceForPlanPrograms(ctx context.Context, planProgramIDs []string, records []plan.Fulfillment) error {
	if len(planProgramIDs) == 0 {
		return nil
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM fulfillments WHERE plan_program_id = ANY($1)`,
			planProgramIDs,
		); err != nil {
			return fmt.Errorf("failed to clear fulfillments: %w", err)
		}

		if len(records) == 0 {
			return nil
		}

		batch := make([][]interface{}, 0, len(records))
		for _, f := range records {
			batch = append(batch, []interface{}{
				f.ID, f.PlanProgramID, f.RequirementKey, f.PlannedCourseID, f.CreditsApplied, f.CreatedAt,
			})
		}

		_, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"fulfillments"},
			[]string{"id", "plan_program_id", "requirement_key", "planned_course_id", "credits_applied", "created_at"},
			pgx.CopyFromRows(batch),
		)
		if err != nil {
			return fmt.Errorf("failed to bulk insert fulfillments: %w", err)
		}
		return nil
	})
}
