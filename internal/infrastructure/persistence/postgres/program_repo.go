package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/planvault/degree-audit/internal/domain/program"
	"github.com/planvault/degree-audit/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRAM REPOSITORY IMPLEMENTATION
// Requirement trees live in a JSONB column and are parsed on load. A program
// whose tree fails to parse surfaces a malformed-requirements error rather
// than a zero-valued tree.
// ══════════════════════════════════════════════════════════════════════════════

// ProgramRepository implements program.Repository for PostgreSQL.
type ProgramRepository struct {
	conn *Connection
}

// NewProgramRepository creates a new ProgramRepository.
func NewProgramRepository(conn *Connection) *ProgramRepository {
	return &ProgramRepository{conn: conn}
}

// GetByID returns a program with its parsed requirement tree.
func (r *ProgramRepository) GetByID(ctx context.Context, id string) (*program.Program, error) {
	query := `
		SELECT id, school_id, name, kind, requirements, created_at, updated_at
		FROM programs
		WHERE id = $1
	`

	prog, err := scanProgram(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgramNotFound
		}
		return nil, err
	}
	return prog, nil
}

// GetByIDs returns the programs for the given ids. Missing ids are skipped.
func (r *ProgramRepository) GetByIDs(ctx context.Context, ids []string) ([]*program.Program, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, school_id, name, kind, requirements, created_at, updated_at
		FROM programs
		WHERE id = ANY($1)
	`

	rows, err := r.conn.Query(ctx, query, ids)
	if err != nil {
		return nil, shared.WrapError("program", "GetByIDs", shared.ErrStoreUnavailable, "query failed", err)
	}
	defer rows.Close()

	byID := make(map[string]*program.Program)
	for rows.Next() {
		prog, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program row: %w", err)
		}
		byID[prog.ID] = prog
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve input order.
	out := make([]*program.Program, 0, len(byID))
	for _, id := range ids {
		if prog, ok := byID[id]; ok {
			out = append(out, prog)
		}
	}
	return out, nil
}

func scanProgram(row pgx.Row) (*program.Program, error) {
	var (
		prog    program.Program
		rawTree []byte
	)
	err := row.Scan(
		&prog.ID,
		&prog.SchoolID,
		&prog.Name,
		&prog.Kind,
		&rawTree,
		&prog.CreatedAt,
		&prog.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	reqs, err := program.ParseRequirements(rawTree)
	if err != nil {
		return nil, shared.WrapError("program", "Parse", shared.ErrMalformedRequirements,
			fmt.Sprintf("program %s has an unparsable requirement tree", prog.ID), err)
	}
	prog.Requirements = reqs
	return &prog, nil
}
