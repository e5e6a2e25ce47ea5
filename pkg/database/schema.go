package database

import (
	"database/sql"
	"fmt"
)

// Schema is the full DDL for the school administration store. Statements are
// idempotent so EnsureSchema can run at every startup.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'teacher',
	employee_id TEXT,
	subjects TEXT NOT NULL DEFAULT '[]',
	classes TEXT NOT NULL DEFAULT '[]',
	department TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS students (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id TEXT UNIQUE NOT NULL,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	parent_phone TEXT NOT NULL DEFAULT '',
	parent_email TEXT NOT NULL DEFAULT '',
	class TEXT NOT NULL,
	section TEXT NOT NULL,
	roll_number INTEGER NOT NULL DEFAULT 0,
	date_of_birth TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	fee_status TEXT NOT NULL DEFAULT 'pending',
	total_fees REAL NOT NULL DEFAULT 0,
	paid_fees REAL NOT NULL DEFAULT 0,
	admission_date TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS teachers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT REFERENCES users(id),
	employee_id TEXT UNIQUE NOT NULL,
	subjects TEXT NOT NULL DEFAULT '[]',
	classes TEXT NOT NULL DEFAULT '[]',
	department TEXT NOT NULL DEFAULT '',
	duty_factor REAL NOT NULL DEFAULT 1.0,
	status TEXT NOT NULL DEFAULT 'ACTIVE',
	total_duties INTEGER NOT NULL DEFAULT 0,
	last_duty_date TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS attendance (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id INTEGER REFERENCES students(id),
	date TEXT NOT NULL,
	status TEXT NOT NULL,
	marked_by TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date);
CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance(student_id, date);

CREATE TABLE IF NOT EXISTS fee_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id INTEGER REFERENCES students(id),
	amount REAL NOT NULL,
	fee_type TEXT NOT NULL,
	due_date TEXT NOT NULL DEFAULT '',
	paid_date TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	payment_method TEXT NOT NULL DEFAULT '',
	transaction_id TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_fee_records_student ON fee_records(student_id);
CREATE INDEX IF NOT EXISTS idx_fee_records_status ON fee_records(status);

CREATE TABLE IF NOT EXISTS timetable (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	class TEXT NOT NULL,
	section TEXT NOT NULL,
	day TEXT NOT NULL,
	period INTEGER NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	subject TEXT NOT NULL,
	teacher_id TEXT NOT NULL DEFAULT '',
	room TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_timetable_class ON timetable(class, section);

CREATE TABLE IF NOT EXISTS exam_schedule (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exam_name TEXT NOT NULL,
	subject TEXT NOT NULL,
	class TEXT NOT NULL,
	section TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	room TEXT NOT NULL DEFAULT '',
	max_marks INTEGER NOT NULL DEFAULT 0,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS invigilation_duties (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exam_id INTEGER REFERENCES exam_schedule(id),
	teacher_id TEXT NOT NULL,
	room TEXT NOT NULL,
	date TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	is_exempted INTEGER NOT NULL DEFAULT 0,
	exemption_reason TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_invigilation_teacher ON invigilation_duties(teacher_id, date);

CREATE TABLE IF NOT EXISTS behavior_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id INTEGER REFERENCES students(id),
	teacher_id TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL,
	severity TEXT NOT NULL DEFAULT '',
	action_taken TEXT NOT NULL DEFAULT '',
	parent_notified INTEGER NOT NULL DEFAULT 0,
	follow_up_required INTEGER NOT NULL DEFAULT 0,
	date TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_behavior_student ON behavior_records(student_id, date);

CREATE TABLE IF NOT EXISTS substitution_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	absent_teacher_id TEXT NOT NULL DEFAULT '',
	substitute_teacher_id TEXT NOT NULL DEFAULT '',
	class TEXT NOT NULL,
	section TEXT NOT NULL,
	subject TEXT NOT NULL,
	period INTEGER NOT NULL,
	date TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'assigned',
	notification_sent INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS whatsapp_notifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recipient_phone TEXT NOT NULL,
	recipient_name TEXT NOT NULL DEFAULT '',
	message_type TEXT NOT NULL,
	message TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	sent_at DATETIME,
	delivered_at DATETIME,
	error_message TEXT NOT NULL DEFAULT '',
	related_entity_id INTEGER NOT NULL DEFAULT 0,
	related_entity_type TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_whatsapp_status ON whatsapp_notifications(status);

CREATE TABLE IF NOT EXISTS ai_chat_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL DEFAULT '',
	session_id TEXT NOT NULL,
	user_message TEXT NOT NULL,
	ai_response TEXT NOT NULL,
	intent TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL DEFAULT 0,
	response_time INTEGER NOT NULL DEFAULT 0,
	feedback_rating INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_chat_session ON ai_chat_history(session_id, created_at);

CREATE TABLE IF NOT EXISTS question_papers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	subject TEXT NOT NULL,
	class TEXT NOT NULL,
	exam_type TEXT NOT NULL DEFAULT '',
	duration INTEGER NOT NULL DEFAULT 0,
	max_marks INTEGER NOT NULL DEFAULT 0,
	instructions TEXT NOT NULL DEFAULT '',
	questions TEXT NOT NULL DEFAULT '{}',
	created_by TEXT NOT NULL DEFAULT '',
	is_published INTEGER NOT NULL DEFAULT 0,
	tags TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS analytics_data (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	metric_type TEXT NOT NULL,
	entity_type TEXT NOT NULL DEFAULT '',
	entity_id TEXT NOT NULL DEFAULT '',
	value REAL NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	period TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_analytics_metric ON analytics_data(metric_type, date);
`

// EnsureSchema applies the DDL. Safe to call on every startup.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
