package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"edumanage/pkg/interfaces"
	"edumanage/pkg/types"
)

const studentColumns = `id, student_id, first_name, last_name, email, phone, parent_phone, parent_email,
	class, section, roll_number, date_of_birth, address, fee_status, total_fees, paid_fees,
	admission_date, is_active, created_at`

func scanStudent(row interface{ Scan(...interface{}) error }) (*types.Student, error) {
	var s types.Student
	err := row.Scan(
		&s.ID,
		&s.StudentID,
		&s.FirstName,
		&s.LastName,
		&s.Email,
		&s.Phone,
		&s.ParentPhone,
		&s.ParentEmail,
		&s.Class,
		&s.Section,
		&s.RollNumber,
		&s.DateOfBirth,
		&s.Address,
		&s.FeeStatus,
		&s.TotalFees,
		&s.PaidFees,
		&s.AdmissionDate,
		&s.IsActive,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStudents returns all active students.
func (m *Manager) GetStudents(ctx context.Context) ([]*types.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE is_active = 1 ORDER BY class, section, roll_number`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var students []*types.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetStudentByID returns one student by primary key.
func (m *Manager) GetStudentByID(ctx context.Context, id int64) (*types.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = ?`

	s, err := scanStudent(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, interfaces.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to query student: %w", err)
	}
	return s, nil
}

// GetStudentsByClass returns the active students of one class section.
func (m *Manager) GetStudentsByClass(ctx context.Context, class, section string) ([]*types.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE is_active = 1 AND class = ? AND section = ? ORDER BY roll_number`

	rows, err := m.db.QueryContext(ctx, query, class, section)
	if err != nil {
		return nil, fmt.Errorf("failed to query students by class: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var students []*types.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// CreateStudent inserts a new student and backfills the generated ID.
func (m *Manager) CreateStudent(ctx context.Context, student *types.Student) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO students (student_id, first_name, last_name, email, phone, parent_phone, parent_email,
				class, section, roll_number, date_of_birth, address, fee_status, total_fees, paid_fees,
				admission_date, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := db.ExecContext(ctx, query,
			student.StudentID,
			student.FirstName,
			student.LastName,
			student.Email,
			student.Phone,
			student.ParentPhone,
			student.ParentEmail,
			student.Class,
			student.Section,
			student.RollNumber,
			student.DateOfBirth,
			student.Address,
			student.FeeStatus,
			student.TotalFees,
			student.PaidFees,
			student.AdmissionDate,
			student.IsActive,
		)
		if err != nil {
			return fmt.Errorf("failed to insert student: %w", err)
		}
		student.ID, err = res.LastInsertId()
		return err
	})
}

// UpdateStudent rewrites the mutable fields of an existing student.
func (m *Manager) UpdateStudent(ctx context.Context, student *types.Student) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			UPDATE students
			SET first_name = ?, last_name = ?, email = ?, phone = ?, parent_phone = ?, parent_email = ?,
				class = ?, section = ?, roll_number = ?, date_of_birth = ?, address = ?,
				fee_status = ?, total_fees = ?, paid_fees = ?, is_active = ?
			WHERE id = ?
		`
		res, err := db.ExecContext(ctx, query,
			student.FirstName,
			student.LastName,
			student.Email,
			student.Phone,
			student.ParentPhone,
			student.ParentEmail,
			student.Class,
			student.Section,
			student.RollNumber,
			student.DateOfBirth,
			student.Address,
			student.FeeStatus,
			student.TotalFees,
			student.PaidFees,
			student.IsActive,
			student.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update student: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return interfaces.ErrStudentNotFound
		}
		return nil
	})
}

// GetTeachers returns all teacher profiles.
func (m *Manager) GetTeachers(ctx context.Context) ([]*types.Teacher, error) {
	query := `
		SELECT id, user_id, employee_id, subjects, classes, department, duty_factor, status, total_duties, last_duty_date, created_at
		FROM teachers
		ORDER BY employee_id
	`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query teachers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var teachers []*types.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan teacher: %w", err)
		}
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}

// GetTeacherByID returns one teacher by primary key.
func (m *Manager) GetTeacherByID(ctx context.Context, id int64) (*types.Teacher, error) {
	query := `
		SELECT id, user_id, employee_id, subjects, classes, department, duty_factor, status, total_duties, last_duty_date, created_at
		FROM teachers
		WHERE id = ?
	`

	t, err := scanTeacher(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, interfaces.ErrTeacherNotFound
		}
		return nil, fmt.Errorf("failed to query teacher: %w", err)
	}
	return t, nil
}

func scanTeacher(row interface{ Scan(...interface{}) error }) (*types.Teacher, error) {
	var t types.Teacher
	var nullableUserID sql.NullString
	var subjectsJSON, classesJSON string

	err := row.Scan(
		&t.ID,
		&nullableUserID,
		&t.EmployeeID,
		&subjectsJSON,
		&classesJSON,
		&t.Department,
		&t.DutyFactor,
		&t.Status,
		&t.TotalDuties,
		&t.LastDutyDate,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.UserID = nullableUserID.String

	if err := json.Unmarshal([]byte(subjectsJSON), &t.Subjects); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subjects: %w", err)
	}
	if err := json.Unmarshal([]byte(classesJSON), &t.Classes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal classes: %w", err)
	}
	return &t, nil
}

// CreateTeacher inserts a new teacher profile and backfills the generated ID.
func (m *Manager) CreateTeacher(ctx context.Context, teacher *types.Teacher) error {
	return m.executeWrite(func(db *sql.DB) error {
		subjectsJSON, err := json.Marshal(teacher.Subjects)
		if err != nil {
			return fmt.Errorf("failed to marshal subjects: %w", err)
		}
		classesJSON, err := json.Marshal(teacher.Classes)
		if err != nil {
			return fmt.Errorf("failed to marshal classes: %w", err)
		}

		query := `
			INSERT INTO teachers (user_id, employee_id, subjects, classes, department, duty_factor, status, total_duties, last_duty_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := db.ExecContext(ctx, query,
			sql.NullString{String: teacher.UserID, Valid: teacher.UserID != ""},
			teacher.EmployeeID,
			string(subjectsJSON),
			string(classesJSON),
			teacher.Department,
			teacher.DutyFactor,
			teacher.Status,
			teacher.TotalDuties,
			teacher.LastDutyDate,
		)
		if err != nil {
			return fmt.Errorf("failed to insert teacher: %w", err)
		}
		teacher.ID, err = res.LastInsertId()
		return err
	})
}
