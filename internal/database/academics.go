package database

import (
	"context"
	"database/sql"
	"fmt"

	"edumanage/pkg/types"
)

// GetTimetable returns the active timetable, optionally narrowed to a class
// section. Entries come back in day and period order.
func (m *Manager) GetTimetable(ctx context.Context, class, section string) ([]*types.TimetableEntry, error) {
	query := `
		SELECT id, class, section, day, period, start_time, end_time, subject, teacher_id, room, is_active, created_at
		FROM timetable
		WHERE is_active = 1
	`
	var args []interface{}
	if class != "" {
		query += ` AND class = ?`
		args = append(args, class)
	}
	if section != "" {
		query += ` AND section = ?`
		args = append(args, section)
	}
	query += ` ORDER BY day, period`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query timetable: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*types.TimetableEntry
	for rows.Next() {
		var e types.TimetableEntry
		err := rows.Scan(
			&e.ID, &e.Class, &e.Section, &e.Day, &e.Period,
			&e.StartTime, &e.EndTime, &e.Subject, &e.TeacherID, &e.Room,
			&e.IsActive, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timetable entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// CreateTimetableEntry inserts a period slot and backfills the generated ID.
func (m *Manager) CreateTimetableEntry(ctx context.Context, entry *types.TimetableEntry) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO timetable (class, section, day, period, start_time, end_time, subject, teacher_id, room, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := db.ExecContext(ctx, query,
			entry.Class, entry.Section, entry.Day, entry.Period,
			entry.StartTime, entry.EndTime, entry.Subject, entry.TeacherID, entry.Room,
			entry.IsActive,
		)
		if err != nil {
			return fmt.Errorf("failed to insert timetable entry: %w", err)
		}
		entry.ID, err = res.LastInsertId()
		return err
	})
}

// DeleteTimetableEntry removes a period slot.
func (m *Manager) DeleteTimetableEntry(ctx context.Context, id int64) error {
	return m.executeWrite(func(db *sql.DB) error {
		if _, err := db.ExecContext(ctx, `DELETE FROM timetable WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete timetable entry: %w", err)
		}
		return nil
	})
}

// GetExamSchedule returns all active exams in date order.
func (m *Manager) GetExamSchedule(ctx context.Context) ([]*types.ExamSchedule, error) {
	query := `
		SELECT id, exam_name, subject, class, section, date, start_time, end_time, room, max_marks, is_active, created_at
		FROM exam_schedule
		WHERE is_active = 1
		ORDER BY date, start_time
	`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query exam schedule: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var exams []*types.ExamSchedule
	for rows.Next() {
		var e types.ExamSchedule
		err := rows.Scan(
			&e.ID, &e.ExamName, &e.Subject, &e.Class, &e.Section,
			&e.Date, &e.StartTime, &e.EndTime, &e.Room, &e.MaxMarks,
			&e.IsActive, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exam: %w", err)
		}
		exams = append(exams, &e)
	}
	return exams, rows.Err()
}

// CreateExamSchedule inserts an exam and backfills the generated ID.
func (m *Manager) CreateExamSchedule(ctx context.Context, exam *types.ExamSchedule) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO exam_schedule (exam_name, subject, class, section, date, start_time, end_time, room, max_marks, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := db.ExecContext(ctx, query,
			exam.ExamName, exam.Subject, exam.Class, exam.Section,
			exam.Date, exam.StartTime, exam.EndTime, exam.Room, exam.MaxMarks,
			exam.IsActive,
		)
		if err != nil {
			return fmt.Errorf("failed to insert exam: %w", err)
		}
		exam.ID, err = res.LastInsertId()
		return err
	})
}

// GetInvigilationDuties returns duties, optionally for a single teacher.
func (m *Manager) GetInvigilationDuties(ctx context.Context, teacherID string) ([]*types.InvigilationDuty, error) {
	query := `
		SELECT id, exam_id, teacher_id, room, date, start_time, end_time, is_exempted, exemption_reason, created_at
		FROM invigilation_duties
	`
	var args []interface{}
	if teacherID != "" {
		query += ` WHERE teacher_id = ?`
		args = append(args, teacherID)
	}
	query += ` ORDER BY date, start_time`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invigilation duties: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var duties []*types.InvigilationDuty
	for rows.Next() {
		var d types.InvigilationDuty
		err := rows.Scan(
			&d.ID, &d.ExamID, &d.TeacherID, &d.Room, &d.Date,
			&d.StartTime, &d.EndTime, &d.IsExempted, &d.ExemptionReason, &d.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invigilation duty: %w", err)
		}
		duties = append(duties, &d)
	}
	return duties, rows.Err()
}

// AssignInvigilationDuty inserts a duty and bumps the teacher's duty counter
// in the same transaction.
func (m *Manager) AssignInvigilationDuty(ctx context.Context, duty *types.InvigilationDuty) error {
	return m.executeWrite(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx,
			`INSERT INTO invigilation_duties (exam_id, teacher_id, room, date, start_time, end_time, is_exempted, exemption_reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			duty.ExamID, duty.TeacherID, duty.Room, duty.Date,
			duty.StartTime, duty.EndTime, duty.IsExempted, duty.ExemptionReason,
		)
		if err != nil {
			return fmt.Errorf("failed to insert invigilation duty: %w", err)
		}
		duty.ID, err = res.LastInsertId()
		if err != nil {
			return err
		}

		if !duty.IsExempted {
			if _, err := tx.ExecContext(ctx,
				`UPDATE teachers SET total_duties = total_duties + 1, last_duty_date = ? WHERE employee_id = ?`,
				duty.Date, duty.TeacherID,
			); err != nil {
				return fmt.Errorf("failed to update teacher duty count: %w", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit invigilation assignment: %w", err)
		}
		return nil
	})
}

// GetSubstitutions returns cover assignments, optionally for one date.
func (m *Manager) GetSubstitutions(ctx context.Context, date string) ([]*types.Substitution, error) {
	query := `
		SELECT id, absent_teacher_id, substitute_teacher_id, class, section, subject, period, date, reason, status, notification_sent, created_at
		FROM substitution_log
	`
	var args []interface{}
	if date != "" {
		query += ` WHERE date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY date DESC, period`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query substitutions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []*types.Substitution
	for rows.Next() {
		var s types.Substitution
		err := rows.Scan(
			&s.ID, &s.AbsentTeacherID, &s.SubstituteTeacherID, &s.Class, &s.Section,
			&s.Subject, &s.Period, &s.Date, &s.Reason, &s.Status,
			&s.NotificationSent, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan substitution: %w", err)
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

// CreateSubstitution inserts a cover assignment and backfills the generated ID.
func (m *Manager) CreateSubstitution(ctx context.Context, sub *types.Substitution) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO substitution_log (absent_teacher_id, substitute_teacher_id, class, section, subject, period, date, reason, status, notification_sent)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := db.ExecContext(ctx, query,
			sub.AbsentTeacherID, sub.SubstituteTeacherID, sub.Class, sub.Section,
			sub.Subject, sub.Period, sub.Date, sub.Reason, sub.Status,
			sub.NotificationSent,
		)
		if err != nil {
			return fmt.Errorf("failed to insert substitution: %w", err)
		}
		sub.ID, err = res.LastInsertId()
		return err
	})
}
