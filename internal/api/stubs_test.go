package api

import (
	"context"
	"encoding/json"

	"edumanage/pkg/interfaces"
	"edumanage/pkg/types"
)

// stubStorage returns canned data and records mutations. Unset fields yield
// empty results.
type stubStorage struct {
	metrics         *types.DashboardMetrics
	students        []*types.Student
	studentByID     map[int64]*types.Student
	teachers        []*types.Teacher
	attendance      []*types.AttendanceRecord
	attendanceStats *types.AttendanceStats
	fees            []*types.FeeRecord
	feeStats        *types.FeeStats
	timetable       []*types.TimetableEntry
	exams           []*types.ExamSchedule
	duties          []*types.InvigilationDuty
	behavior        []*types.BehaviorRecord
	substitutions   []*types.Substitution
	notifications   []*types.WhatsAppNotification
	chatHistory     []*types.ChatHistoryEntry
	papers          []*types.QuestionPaper
	analytics       []*types.AnalyticsRow

	createdStudents      []*types.Student
	markedAttendance     []*types.AttendanceRecord
	createdFees          []*types.FeeRecord
	updatedFees          []*types.FeeRecord
	createdSubstitutions []*types.Substitution
	loggedNotifications  []*types.WhatsAppNotification
	savedAnalytics       []*types.AnalyticsRow

	err error
}

func (s *stubStorage) GetUser(ctx context.Context, id string) (*types.User, error) {
	return nil, interfaces.ErrUserNotFound
}

func (s *stubStorage) UpsertUser(ctx context.Context, user *types.User) error { return s.err }

func (s *stubStorage) GetStudents(ctx context.Context) ([]*types.Student, error) {
	return s.students, s.err
}

func (s *stubStorage) GetStudentByID(ctx context.Context, id int64) (*types.Student, error) {
	if s.err != nil {
		return nil, s.err
	}
	student, ok := s.studentByID[id]
	if !ok {
		return nil, interfaces.ErrStudentNotFound
	}
	return student, nil
}

func (s *stubStorage) GetStudentsByClass(ctx context.Context, class, section string) ([]*types.Student, error) {
	return s.students, s.err
}

func (s *stubStorage) CreateStudent(ctx context.Context, student *types.Student) error {
	if s.err != nil {
		return s.err
	}
	student.ID = int64(len(s.createdStudents) + 1)
	s.createdStudents = append(s.createdStudents, student)
	return nil
}

func (s *stubStorage) UpdateStudent(ctx context.Context, student *types.Student) error { return s.err }

func (s *stubStorage) GetTeachers(ctx context.Context) ([]*types.Teacher, error) {
	return s.teachers, s.err
}

func (s *stubStorage) GetTeacherByID(ctx context.Context, id int64) (*types.Teacher, error) {
	return nil, interfaces.ErrTeacherNotFound
}

func (s *stubStorage) CreateTeacher(ctx context.Context, teacher *types.Teacher) error {
	teacher.ID = 1
	return s.err
}

func (s *stubStorage) GetAttendanceByDate(ctx context.Context, date string) ([]*types.AttendanceRecord, error) {
	return s.attendance, s.err
}

func (s *stubStorage) GetAttendanceByStudent(ctx context.Context, studentID int64, startDate, endDate string) ([]*types.AttendanceRecord, error) {
	return s.attendance, s.err
}

func (s *stubStorage) MarkAttendance(ctx context.Context, record *types.AttendanceRecord) error {
	if s.err != nil {
		return s.err
	}
	record.ID = int64(len(s.markedAttendance) + 1)
	s.markedAttendance = append(s.markedAttendance, record)
	return nil
}

func (s *stubStorage) GetAttendanceStats(ctx context.Context, class, section string) (*types.AttendanceStats, error) {
	if s.attendanceStats == nil {
		return &types.AttendanceStats{}, s.err
	}
	return s.attendanceStats, s.err
}

func (s *stubStorage) GetFeeRecords(ctx context.Context) ([]*types.FeeRecord, error) {
	return s.fees, s.err
}

func (s *stubStorage) GetFeeRecordsByStudent(ctx context.Context, studentID int64) ([]*types.FeeRecord, error) {
	return s.fees, s.err
}

func (s *stubStorage) CreateFeeRecord(ctx context.Context, record *types.FeeRecord) error {
	if s.err != nil {
		return s.err
	}
	record.ID = int64(len(s.createdFees) + 1)
	s.createdFees = append(s.createdFees, record)
	return nil
}

func (s *stubStorage) UpdateFeeRecord(ctx context.Context, record *types.FeeRecord) error {
	if s.err != nil {
		return s.err
	}
	s.updatedFees = append(s.updatedFees, record)
	return nil
}

func (s *stubStorage) GetFeeCollectionStats(ctx context.Context) (*types.FeeStats, error) {
	if s.feeStats == nil {
		return &types.FeeStats{}, s.err
	}
	return s.feeStats, s.err
}

func (s *stubStorage) GetTimetable(ctx context.Context, class, section string) ([]*types.TimetableEntry, error) {
	return s.timetable, s.err
}

func (s *stubStorage) CreateTimetableEntry(ctx context.Context, entry *types.TimetableEntry) error {
	entry.ID = 1
	return s.err
}

func (s *stubStorage) DeleteTimetableEntry(ctx context.Context, id int64) error { return s.err }

func (s *stubStorage) GetExamSchedule(ctx context.Context) ([]*types.ExamSchedule, error) {
	return s.exams, s.err
}

func (s *stubStorage) CreateExamSchedule(ctx context.Context, exam *types.ExamSchedule) error {
	exam.ID = 1
	return s.err
}

func (s *stubStorage) GetInvigilationDuties(ctx context.Context, teacherID string) ([]*types.InvigilationDuty, error) {
	return s.duties, s.err
}

func (s *stubStorage) AssignInvigilationDuty(ctx context.Context, duty *types.InvigilationDuty) error {
	duty.ID = 1
	return s.err
}

func (s *stubStorage) GetBehaviorRecords(ctx context.Context, studentID int64) ([]*types.BehaviorRecord, error) {
	return s.behavior, s.err
}

func (s *stubStorage) CreateBehaviorRecord(ctx context.Context, record *types.BehaviorRecord) error {
	record.ID = 1
	return s.err
}

func (s *stubStorage) GetSubstitutions(ctx context.Context, date string) ([]*types.Substitution, error) {
	return s.substitutions, s.err
}

func (s *stubStorage) CreateSubstitution(ctx context.Context, sub *types.Substitution) error {
	if s.err != nil {
		return s.err
	}
	sub.ID = int64(len(s.createdSubstitutions) + 1)
	s.createdSubstitutions = append(s.createdSubstitutions, sub)
	return nil
}

func (s *stubStorage) CreateWhatsAppNotification(ctx context.Context, n *types.WhatsAppNotification) error {
	if s.err != nil {
		return s.err
	}
	n.ID = int64(len(s.loggedNotifications) + 1)
	s.loggedNotifications = append(s.loggedNotifications, n)
	return nil
}

func (s *stubStorage) GetWhatsAppNotifications(ctx context.Context, status string) ([]*types.WhatsAppNotification, error) {
	return s.notifications, s.err
}

func (s *stubStorage) SaveChatHistory(ctx context.Context, entry *types.ChatHistoryEntry) error {
	return s.err
}

func (s *stubStorage) GetChatHistory(ctx context.Context, sessionID string) ([]*types.ChatHistoryEntry, error) {
	return s.chatHistory, s.err
}

func (s *stubStorage) GetQuestionPapers(ctx context.Context) ([]*types.QuestionPaper, error) {
	return s.papers, s.err
}

func (s *stubStorage) CreateQuestionPaper(ctx context.Context, paper *types.QuestionPaper) error {
	paper.ID = 1
	return s.err
}

func (s *stubStorage) SaveAnalyticsRow(ctx context.Context, row *types.AnalyticsRow) error {
	if s.err != nil {
		return s.err
	}
	row.ID = int64(len(s.savedAnalytics) + 1)
	s.savedAnalytics = append(s.savedAnalytics, row)
	return nil
}

func (s *stubStorage) GetAnalyticsRows(ctx context.Context, metricType, startDate, endDate string) ([]*types.AnalyticsRow, error) {
	return s.analytics, s.err
}

func (s *stubStorage) GetDashboardMetrics(ctx context.Context) (*types.DashboardMetrics, error) {
	if s.metrics == nil {
		return &types.DashboardMetrics{AttendanceRate: "0.0"}, s.err
	}
	return s.metrics, s.err
}

// stubBroadcaster records every delivered notification.
type stubBroadcaster struct {
	notifications []*types.EventNotification
}

func (b *stubBroadcaster) Broadcast(n *types.EventNotification) error {
	b.notifications = append(b.notifications, n)
	return nil
}

func (b *stubBroadcaster) BroadcastToRoles(n *types.EventNotification, roles []string) error {
	b.notifications = append(b.notifications, n)
	return nil
}

func (b *stubBroadcaster) SendToUser(userID string, n *types.EventNotification) error {
	b.notifications = append(b.notifications, n)
	return nil
}

// stubMessenger records outbound message calls.
type stubMessenger struct {
	sent        []string
	alerts      []string
	reminders   []string
	duties      []string
	subs        []string
	verifyToken string
	sendErr     error
}

func (m *stubMessenger) SendMessage(ctx context.Context, to, message, messageType string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, to+": "+message)
	return nil
}

func (m *stubMessenger) SendAttendanceAlert(ctx context.Context, studentName, parentPhone, status, date string) error {
	m.alerts = append(m.alerts, parentPhone+": "+studentName+" "+status)
	return nil
}

func (m *stubMessenger) SendFeeReminder(ctx context.Context, studentName, parentPhone string, amount float64, dueDate string) error {
	m.reminders = append(m.reminders, parentPhone)
	return nil
}

func (m *stubMessenger) SendInvigilationDuty(ctx context.Context, teacherName, teacherPhone, subject, class, date, startTime, endTime, room string) error {
	m.duties = append(m.duties, teacherPhone)
	return nil
}

func (m *stubMessenger) SendSubstitutionNotice(ctx context.Context, teacherName, teacherPhone, class, section, subject string, period int, date, absentTeacher string) error {
	m.subs = append(m.subs, teacherPhone)
	return nil
}

func (m *stubMessenger) VerifyWebhook(mode, token, challenge string) (string, bool) {
	if mode == "subscribe" && token == m.verifyToken {
		return challenge, true
	}
	return "", false
}

func (m *stubMessenger) ProcessWebhook(ctx context.Context, payload []byte) error { return nil }

// stubAssistant returns canned model output.
type stubAssistant struct {
	response string
	paper    json.RawMessage
	analysis *interfaces.BehaviorAnalysis

	analyzedRecords []*types.BehaviorRecord
}

func (a *stubAssistant) ProcessQuery(ctx context.Context, message, userID, sessionID string) (string, error) {
	return a.response, nil
}

func (a *stubAssistant) ClassifyIntent(ctx context.Context, message string) (*interfaces.Intent, error) {
	return &interfaces.Intent{Name: "other", Confidence: 0.5}, nil
}

func (a *stubAssistant) GenerateQuestionPaper(ctx context.Context, subject, class, examType string, duration int) (json.RawMessage, error) {
	return a.paper, nil
}

func (a *stubAssistant) AnalyzeBehavior(ctx context.Context, records []*types.BehaviorRecord) (*interfaces.BehaviorAnalysis, error) {
	a.analyzedRecords = records
	if a.analysis == nil {
		return &interfaces.BehaviorAnalysis{}, nil
	}
	return a.analysis, nil
}
