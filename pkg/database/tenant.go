package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// WithCompanyRLS executes a function with RLS-based company isolation.
// This is the isolation mechanism for pooled multi-tenancy: the client-side
// company_id predicates in queries are defense in depth, the RLS policies
// keyed on app.current_company are the security boundary.
//
// Usage in repositories:
//
//	companyID, err := tenant.CompanyID(ctx)
//	if err != nil { return err }
//	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
//	    return r.db.GetContext(ctx, &lead, "SELECT * FROM leads WHERE id = $1", id)
//	})
//
// How it works:
//  1. Starts a transaction
//  2. Sets "SET LOCAL app.current_company = '<company-uuid>'"
//  3. RLS policies filter rows: USING (company_id = current_setting('app.current_company')::uuid)
//  4. Commits the transaction (session variables are scoped to it)
//
// SET LOCAL is transaction-scoped, so even with connection pooling the next
// request on the same connection starts from clean state, and WITH CHECK
// policies prevent inserting rows for the wrong company.
func (db *DB) WithCompanyRLS(ctx context.Context, companyID string, fn func(context.Context) error) error {
	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		// SET LOCAL doesn't support bind parameters; companyID is a UUID
		// validated upstream, never raw user input.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL app.current_company = '%s'", companyID)); err != nil {
			return fmt.Errorf("failed to set app.current_company to %s: %w", companyID, err)
		}

		// Store the transaction in context so the DB query helpers below
		// route statements through it.
		txCtx := context.WithValue(ctx, txKey{}, tx)

		return fn(txCtx)
	})
}

// getTx extracts the transaction from context if present
func (db *DB) getTx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}

// GetContext scans a single row, routing through the RLS transaction when present.
func (db *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if tx := db.getTx(ctx); tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return db.DB.GetContext(ctx, dest, query, args...)
}

// SelectContext scans multiple rows, routing through the RLS transaction when present.
func (db *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if tx := db.getTx(ctx); tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return db.DB.SelectContext(ctx, dest, query, args...)
}

// ExecContext executes a statement, routing through the RLS transaction when present.
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if tx := db.getTx(ctx); tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return db.DB.ExecContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query, routing through the RLS transaction when present.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if tx := db.getTx(ctx); tx != nil {
		return tx.QueryRowContext(ctx, query, args...)
	}
	return db.DB.QueryRowContext(ctx, query, args...)
}

// QueryxContext runs a multi-row query, routing through the RLS transaction when present.
func (db *DB) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	if tx := db.getTx(ctx); tx != nil {
		return tx.QueryxContext(ctx, query, args...)
	}
	return db.DB.QueryxContext(ctx, query, args...)
}
