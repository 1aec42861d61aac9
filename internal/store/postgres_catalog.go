package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"loan-advisor/internal/models"
)

// PostgresCatalog reads products from `loan_products`. Localized and nested
// fields live in JSONB columns.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

const loanColumns = `id, loan_type, name, description,
	interest_min, interest_max, amount_min, amount_max, tenure_min, tenure_max,
	eligibility_criteria, required_documents, features, processing_fee, is_active`

var (
	queryActiveLoans = `SELECT ` + loanColumns + ` FROM loan_products WHERE is_active = TRUE ORDER BY id`
	queryLoanByID    = `SELECT ` + loanColumns + ` FROM loan_products WHERE id = $1`
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (c *PostgresCatalog) ActiveLoans(ctx context.Context) ([]models.LoanProduct, error) {
	rows, err := c.db.QueryContext(ctx, queryActiveLoans)
	if err != nil {
		return nil, fmt.Errorf("postgres: query loans: %w", err)
	}
	defer rows.Close()

	loans := []models.LoanProduct{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate loans: %w", err)
	}
	return loans, nil
}

func (c *PostgresCatalog) GetLoan(ctx context.Context, id string) (*models.LoanProduct, error) {
	loan, err := scanLoan(c.db.QueryRowContext(ctx, queryLoanByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return loan, err
}

func scanLoan(row rowScanner) (*models.LoanProduct, error) {
	var (
		loan                                    models.LoanProduct
		loanType                                string
		name, description, criteria, docs, feat []byte
		processingFee                           sql.NullString
	)
	err := row.Scan(
		&loan.ID, &loanType, &name, &description,
		&loan.InterestRate.Min, &loan.InterestRate.Max,
		&loan.LoanAmount.Min, &loan.LoanAmount.Max,
		&loan.Tenure.Min, &loan.Tenure.Max,
		&criteria, &docs, &feat, &processingFee, &loan.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: scan loan: %w", err)
	}
	loan.LoanType = models.LoanType(loanType)
	loan.ProcessingFee = processingFee.String

	for _, col := range []struct {
		name string
		raw  []byte
		dst  interface{}
	}{
		{"name", name, &loan.Name},
		{"description", description, &loan.Description},
		{"eligibility_criteria", criteria, &loan.EligibilityCriteria},
		{"required_documents", docs, &loan.RequiredDocuments},
		{"features", feat, &loan.Features},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("postgres: decode %s for loan %s: %w", col.name, loan.ID, err)
		}
	}
	return &loan, nil
}

const execUpsertLoan = `INSERT INTO loan_products (` + loanColumns + `)
	VALUES ($1, $2, $3::jsonb, $4::jsonb, $5, $6, $7, $8, $9, $10, $11::jsonb, $12::jsonb, $13::jsonb, $14, $15)
	ON CONFLICT (id) DO UPDATE SET
		loan_type = EXCLUDED.loan_type, name = EXCLUDED.name, description = EXCLUDED.description,
		interest_min = EXCLUDED.interest_min, interest_max = EXCLUDED.interest_max,
		amount_min = EXCLUDED.amount_min, amount_max = EXCLUDED.amount_max,
		tenure_min = EXCLUDED.tenure_min, tenure_max = EXCLUDED.tenure_max,
		eligibility_criteria = EXCLUDED.eligibility_criteria,
		required_documents = EXCLUDED.required_documents, features = EXCLUDED.features,
		processing_fee = EXCLUDED.processing_fee, is_active = EXCLUDED.is_active`

// Upsert writes loans in one transaction, replacing rows with the same id.
func (c *PostgresCatalog) Upsert(ctx context.Context, loans []models.LoanProduct) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, loan := range loans {
		args, err := loanArgs(loan)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, execUpsertLoan, args...); err != nil {
			return fmt.Errorf("postgres: upsert loan %s: %w", loan.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func loanArgs(loan models.LoanProduct) ([]interface{}, error) {
	encoded := make([]string, 0, 5)
	for _, v := range []interface{}{loan.Name, loan.Description, loan.EligibilityCriteria, loan.RequiredDocuments, loan.Features} {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("postgres: encode loan %s: %w", loan.ID, err)
		}
		encoded = append(encoded, string(raw))
	}

	var fee sql.NullString
	if loan.ProcessingFee != "" {
		fee = sql.NullString{String: loan.ProcessingFee, Valid: true}
	}

	return []interface{}{
		loan.ID, string(loan.LoanType), encoded[0], encoded[1],
		loan.InterestRate.Min, loan.InterestRate.Max,
		loan.LoanAmount.Min, loan.LoanAmount.Max,
		loan.Tenure.Min, loan.Tenure.Max,
		encoded[2], encoded[3], encoded[4], fee, loan.IsActive,
	}, nil
}
