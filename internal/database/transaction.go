package database

import (
	"context"
	"fmt"
	"strings"
)

// AtomicBatch accumulates SurrealQL statements and runs them inside one
// BEGIN/COMMIT block, so they succeed or fail together.
//
//	batch := NewAtomicBatch()
//	batch.Add(`UPDATE lfg_post SET applicants = ...`, vars)
//	batch.Add(`DELETE type::thing("character", $id)`, vars)
//	err := batch.Execute(ctx, db)
//
// Statements share one variable namespace; callers pick distinct names.
type AtomicBatch struct {
	statements []string
	vars       map[string]interface{}
}

// NewAtomicBatch creates an empty batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{vars: make(map[string]interface{})}
}

// Add appends a statement and merges its variables
func (ab *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	ab.statements = append(ab.statements, strings.TrimSuffix(strings.TrimSpace(query), ";"))
	for k, v := range vars {
		ab.vars[k] = v
	}
	return ab
}

// Len returns the number of statements in the batch
func (ab *AtomicBatch) Len() int {
	return len(ab.statements)
}

// Query renders the transaction block
func (ab *AtomicBatch) Query() string {
	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range ab.statements {
		sb.WriteString(stmt)
		sb.WriteString(";\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")
	return sb.String()
}

// Execute runs the batch. An empty batch is a no-op.
func (ab *AtomicBatch) Execute(ctx context.Context, db Database) error {
	if len(ab.statements) == 0 {
		return nil
	}
	if err := db.Execute(ctx, ab.Query(), ab.vars); err != nil {
		return fmt.Errorf("atomic batch: %w", err)
	}
	return nil
}
