package database

import (
	"context"
	"database/sql"
	"fmt"

	"edumanage/pkg/types"
)

const feeColumns = `id, student_id, amount, fee_type, due_date, paid_date, status, payment_method, transaction_id, notes, created_at`

func scanFeeRecord(row interface{ Scan(...interface{}) error }) (*types.FeeRecord, error) {
	var r types.FeeRecord
	err := row.Scan(
		&r.ID,
		&r.StudentID,
		&r.Amount,
		&r.FeeType,
		&r.DueDate,
		&r.PaidDate,
		&r.Status,
		&r.PaymentMethod,
		&r.TransactionID,
		&r.Notes,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetFeeRecords returns all fee records, newest first.
func (m *Manager) GetFeeRecords(ctx context.Context) ([]*types.FeeRecord, error) {
	query := `SELECT ` + feeColumns + ` FROM fee_records ORDER BY created_at DESC`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*types.FeeRecord
	for rows.Next() {
		r, err := scanFeeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fee record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetFeeRecordsByStudent returns one student's fee records, newest first.
func (m *Manager) GetFeeRecordsByStudent(ctx context.Context, studentID int64) ([]*types.FeeRecord, error) {
	query := `SELECT ` + feeColumns + ` FROM fee_records WHERE student_id = ? ORDER BY created_at DESC`

	rows, err := m.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query student fee records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*types.FeeRecord
	for rows.Next() {
		r, err := scanFeeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fee record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CreateFeeRecord inserts a new fee line item and backfills the generated ID.
func (m *Manager) CreateFeeRecord(ctx context.Context, record *types.FeeRecord) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO fee_records (student_id, amount, fee_type, due_date, paid_date, status, payment_method, transaction_id, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := db.ExecContext(ctx, query,
			record.StudentID,
			record.Amount,
			record.FeeType,
			record.DueDate,
			record.PaidDate,
			record.Status,
			record.PaymentMethod,
			record.TransactionID,
			record.Notes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert fee record: %w", err)
		}
		record.ID, err = res.LastInsertId()
		return err
	})
}

// UpdateFeeRecord rewrites the payment fields of an existing fee record.
func (m *Manager) UpdateFeeRecord(ctx context.Context, record *types.FeeRecord) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			UPDATE fee_records
			SET amount = ?, fee_type = ?, due_date = ?, paid_date = ?, status = ?, payment_method = ?, transaction_id = ?, notes = ?
			WHERE id = ?
		`
		_, err := db.ExecContext(ctx, query,
			record.Amount,
			record.FeeType,
			record.DueDate,
			record.PaidDate,
			record.Status,
			record.PaymentMethod,
			record.TransactionID,
			record.Notes,
			record.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update fee record: %w", err)
		}
		return nil
	})
}

// GetFeeCollectionStats aggregates fee amounts by status across all records.
func (m *Manager) GetFeeCollectionStats(ctx context.Context) (*types.FeeStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'paid' THEN amount END), 0),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN amount END), 0),
			COALESCE(SUM(CASE WHEN status = 'overdue' THEN amount END), 0),
			COUNT(*)
		FROM fee_records
	`

	var stats types.FeeStats
	err := m.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalCollected,
		&stats.TotalPending,
		&stats.TotalOverdue,
		&stats.RecordCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee stats: %w", err)
	}
	return &stats, nil
}
