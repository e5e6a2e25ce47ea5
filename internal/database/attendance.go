package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"edumanage/pkg/types"
)

const attendanceColumns = `id, student_id, date, status, marked_by, notes, created_at`

func scanAttendance(row interface{ Scan(...interface{}) error }) (*types.AttendanceRecord, error) {
	var r types.AttendanceRecord
	err := row.Scan(&r.ID, &r.StudentID, &r.Date, &r.Status, &r.MarkedBy, &r.Notes, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetAttendanceByDate returns every attendance record for one date.
func (m *Manager) GetAttendanceByDate(ctx context.Context, date string) ([]*types.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE date = ? ORDER BY student_id`

	rows, err := m.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*types.AttendanceRecord
	for rows.Next() {
		r, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetAttendanceByStudent returns one student's records in a date range.
func (m *Manager) GetAttendanceByStudent(ctx context.Context, studentID int64, startDate, endDate string) ([]*types.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE student_id = ? AND date >= ? AND date <= ? ORDER BY date`

	rows, err := m.db.QueryContext(ctx, query, studentID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query student attendance: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*types.AttendanceRecord
	for rows.Next() {
		r, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// MarkAttendance records one student's attendance for a date. Re-marking the
// same student and date replaces the earlier status.
func (m *Manager) MarkAttendance(ctx context.Context, record *types.AttendanceRecord) error {
	return m.executeWrite(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM attendance WHERE student_id = ? AND date = ?`,
			record.StudentID, record.Date,
		); err != nil {
			return fmt.Errorf("failed to clear previous attendance: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO attendance (student_id, date, status, marked_by, notes) VALUES (?, ?, ?, ?, ?)`,
			record.StudentID, record.Date, record.Status, record.MarkedBy, record.Notes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert attendance: %w", err)
		}
		record.ID, err = res.LastInsertId()
		if err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit attendance: %w", err)
		}
		return nil
	})
}

// GetAttendanceStats aggregates attendance counts, optionally narrowed to one
// class section via a join on students.
func (m *Manager) GetAttendanceStats(ctx context.Context, class, section string) (*types.AttendanceStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(CASE WHEN a.status = 'present' THEN 1 END),
			COUNT(CASE WHEN a.status = 'absent' THEN 1 END)
		FROM attendance a
	`
	var args []interface{}
	if class != "" || section != "" {
		query += ` JOIN students s ON s.id = a.student_id WHERE 1 = 1`
		if class != "" {
			query += ` AND s.class = ?`
			args = append(args, class)
		}
		if section != "" {
			query += ` AND s.section = ?`
			args = append(args, section)
		}
	}

	var stats types.AttendanceStats
	err := m.db.QueryRowContext(ctx, query, args...).Scan(&stats.Total, &stats.Present, &stats.Absent)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance stats: %w", err)
	}

	if stats.Total > 0 {
		stats.AttendanceRate = float64(stats.Present) / float64(stats.Total) * 100
	}
	return &stats, nil
}

// todayDate returns the current date in the storage format.
func todayDate() string {
	return time.Now().Format("2006-01-02")
}
