package interfaces

import (
	"context"

	"edumanage/pkg/types"
)

// Storage is the persistence gateway. The realtime and route layers treat it
// as opaque; implementations own all SQL.
type Storage interface {
	// Users
	GetUser(ctx context.Context, id string) (*types.User, error)
	UpsertUser(ctx context.Context, user *types.User) error

	// Students
	GetStudents(ctx context.Context) ([]*types.Student, error)
	GetStudentByID(ctx context.Context, id int64) (*types.Student, error)
	GetStudentsByClass(ctx context.Context, class, section string) ([]*types.Student, error)
	CreateStudent(ctx context.Context, student *types.Student) error
	UpdateStudent(ctx context.Context, student *types.Student) error

	// Teachers
	GetTeachers(ctx context.Context) ([]*types.Teacher, error)
	GetTeacherByID(ctx context.Context, id int64) (*types.Teacher, error)
	CreateTeacher(ctx context.Context, teacher *types.Teacher) error

	// Attendance
	GetAttendanceByDate(ctx context.Context, date string) ([]*types.AttendanceRecord, error)
	GetAttendanceByStudent(ctx context.Context, studentID int64, startDate, endDate string) ([]*types.AttendanceRecord, error)
	MarkAttendance(ctx context.Context, record *types.AttendanceRecord) error
	GetAttendanceStats(ctx context.Context, class, section string) (*types.AttendanceStats, error)

	// Fees
	GetFeeRecords(ctx context.Context) ([]*types.FeeRecord, error)
	GetFeeRecordsByStudent(ctx context.Context, studentID int64) ([]*types.FeeRecord, error)
	CreateFeeRecord(ctx context.Context, record *types.FeeRecord) error
	UpdateFeeRecord(ctx context.Context, record *types.FeeRecord) error
	GetFeeCollectionStats(ctx context.Context) (*types.FeeStats, error)

	// Timetable
	GetTimetable(ctx context.Context, class, section string) ([]*types.TimetableEntry, error)
	CreateTimetableEntry(ctx context.Context, entry *types.TimetableEntry) error
	DeleteTimetableEntry(ctx context.Context, id int64) error

	// Exams and invigilation
	GetExamSchedule(ctx context.Context) ([]*types.ExamSchedule, error)
	CreateExamSchedule(ctx context.Context, exam *types.ExamSchedule) error
	GetInvigilationDuties(ctx context.Context, teacherID string) ([]*types.InvigilationDuty, error)
	AssignInvigilationDuty(ctx context.Context, duty *types.InvigilationDuty) error

	// Behavior
	GetBehaviorRecords(ctx context.Context, studentID int64) ([]*types.BehaviorRecord, error)
	CreateBehaviorRecord(ctx context.Context, record *types.BehaviorRecord) error

	// Substitutions
	GetSubstitutions(ctx context.Context, date string) ([]*types.Substitution, error)
	CreateSubstitution(ctx context.Context, sub *types.Substitution) error

	// WhatsApp notification log
	CreateWhatsAppNotification(ctx context.Context, n *types.WhatsAppNotification) error
	GetWhatsAppNotifications(ctx context.Context, status string) ([]*types.WhatsAppNotification, error)

	// Assistant chat history
	SaveChatHistory(ctx context.Context, entry *types.ChatHistoryEntry) error
	GetChatHistory(ctx context.Context, sessionID string) ([]*types.ChatHistoryEntry, error)

	// Question papers
	GetQuestionPapers(ctx context.Context) ([]*types.QuestionPaper, error)
	CreateQuestionPaper(ctx context.Context, paper *types.QuestionPaper) error

	// Analytics
	SaveAnalyticsRow(ctx context.Context, row *types.AnalyticsRow) error
	GetAnalyticsRows(ctx context.Context, metricType, startDate, endDate string) ([]*types.AnalyticsRow, error)

	// Dashboard
	GetDashboardMetrics(ctx context.Context) (*types.DashboardMetrics, error)
}
