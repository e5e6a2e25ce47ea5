package types

import (
	"encoding/json"
	"time"
)

// Roles a dashboard client may claim at authenticate time. The claim is
// recorded as-is; nothing in this layer verifies it against a session.
const (
	RoleAdmin         = "admin"
	RolePrincipal     = "principal"
	RoleVicePrincipal = "vice_principal"
	RoleTeacher       = "teacher"
	RoleClassTeacher  = "class_teacher"
)

// Attendance statuses.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

// Fee record statuses.
const (
	FeePending = "pending"
	FeePaid    = "paid"
	FeeOverdue = "overdue"
)

// User is a staff account with role-based access.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Role       string    `json:"role"`
	EmployeeID string    `json:"employeeId"`
	Subjects   []string  `json:"subjects"`
	Classes    []string  `json:"classes"`
	Department string    `json:"department"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Student is an enrolled student record.
type Student struct {
	ID            int64     `json:"id"`
	StudentID     string    `json:"studentId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	ParentPhone   string    `json:"parentPhone"`
	ParentEmail   string    `json:"parentEmail"`
	Class         string    `json:"class"`
	Section       string    `json:"section"`
	RollNumber    int       `json:"rollNumber"`
	DateOfBirth   string    `json:"dateOfBirth"`
	Address       string    `json:"address"`
	FeeStatus     string    `json:"feeStatus"`
	TotalFees     float64   `json:"totalFees"`
	PaidFees      float64   `json:"paidFees"`
	AdmissionDate string    `json:"admissionDate"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Teacher is a teaching-staff profile linked to a User account.
// DutyFactor weights invigilation duty allocation.
type Teacher struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"userId"`
	EmployeeID   string    `json:"employeeId"`
	Subjects     []string  `json:"subjects"`
	Classes      []string  `json:"classes"`
	Department   string    `json:"department"`
	DutyFactor   float64   `json:"dutyFactor"`
	Status       string    `json:"status"`
	TotalDuties  int       `json:"totalDuties"`
	LastDutyDate string    `json:"lastDutyDate"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AttendanceRecord is one student's attendance for one date.
type AttendanceRecord struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"studentId"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	MarkedBy  string    `json:"markedBy"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

// AttendanceStats aggregates attendance counts for a class or the school.
type AttendanceStats struct {
	Total          int     `json:"total"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	AttendanceRate float64 `json:"attendanceRate"`
}

// FeeRecord is one fee line item for a student.
type FeeRecord struct {
	ID            int64     `json:"id"`
	StudentID     int64     `json:"studentId"`
	Amount        float64   `json:"amount"`
	FeeType       string    `json:"feeType"`
	DueDate       string    `json:"dueDate"`
	PaidDate      string    `json:"paidDate"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"paymentMethod"`
	TransactionID string    `json:"transactionId"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FeeStats aggregates fee collection totals by status.
type FeeStats struct {
	TotalCollected float64 `json:"totalCollected"`
	TotalPending   float64 `json:"totalPending"`
	TotalOverdue   float64 `json:"totalOverdue"`
	RecordCount    int     `json:"recordCount"`
}

// TimetableEntry is one period slot for a class/section.
type TimetableEntry struct {
	ID        int64     `json:"id"`
	Class     string    `json:"class"`
	Section   string    `json:"section"`
	Day       string    `json:"day"`
	Period    int       `json:"period"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Subject   string    `json:"subject"`
	TeacherID string    `json:"teacherId"`
	Room      string    `json:"room"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExamSchedule is one scheduled examination.
type ExamSchedule struct {
	ID        int64     `json:"id"`
	ExamName  string    `json:"examName"`
	Subject   string    `json:"subject"`
	Class     string    `json:"class"`
	Section   string    `json:"section"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Room      string    `json:"room"`
	MaxMarks  int       `json:"maxMarks"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// InvigilationDuty assigns a teacher to supervise an exam room.
type InvigilationDuty struct {
	ID              int64     `json:"id"`
	ExamID          int64     `json:"examId"`
	TeacherID       string    `json:"teacherId"`
	Room            string    `json:"room"`
	Date            string    `json:"date"`
	StartTime       string    `json:"startTime"`
	EndTime         string    `json:"endTime"`
	IsExempted      bool      `json:"isExempted"`
	ExemptionReason string    `json:"exemptionReason"`
	CreatedAt       time.Time `json:"createdAt"`
}

// BehaviorRecord is one logged behavior incident or commendation.
type BehaviorRecord struct {
	ID               int64     `json:"id"`
	StudentID        int64     `json:"studentId"`
	TeacherID        string    `json:"teacherId"`
	Type             string    `json:"type"`
	Category         string    `json:"category"`
	Description      string    `json:"description"`
	Severity         string    `json:"severity"`
	ActionTaken      string    `json:"actionTaken"`
	ParentNotified   bool      `json:"parentNotified"`
	FollowUpRequired bool      `json:"followUpRequired"`
	Date             string    `json:"date"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Substitution records a cover assignment for an absent teacher.
type Substitution struct {
	ID                  int64     `json:"id"`
	AbsentTeacherID     string    `json:"absentTeacherId"`
	SubstituteTeacherID string    `json:"substituteTeacherId"`
	Class               string    `json:"class"`
	Section             string    `json:"section"`
	Subject             string    `json:"subject"`
	Period              int       `json:"period"`
	Date                string    `json:"date"`
	Reason              string    `json:"reason"`
	Status              string    `json:"status"`
	NotificationSent    bool      `json:"notificationSent"`
	CreatedAt           time.Time `json:"createdAt"`
}

// WhatsAppNotification is an outbound parent/teacher message record.
type WhatsAppNotification struct {
	ID                int64      `json:"id"`
	RecipientPhone    string     `json:"recipientPhone"`
	RecipientName     string     `json:"recipientName"`
	MessageType       string     `json:"messageType"`
	Message           string     `json:"message"`
	Status            string     `json:"status"`
	SentAt            *time.Time `json:"sentAt,omitempty"`
	DeliveredAt       *time.Time `json:"deliveredAt,omitempty"`
	ErrorMessage      string     `json:"errorMessage"`
	RelatedEntityID   int64      `json:"relatedEntityId"`
	RelatedEntityType string     `json:"relatedEntityType"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// ChatHistoryEntry is one assistant exchange within a chat session.
type ChatHistoryEntry struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"userId"`
	SessionID      string    `json:"sessionId"`
	UserMessage    string    `json:"userMessage"`
	AIResponse     string    `json:"aiResponse"`
	Intent         string    `json:"intent"`
	Confidence     float64   `json:"confidence"`
	ResponseTime   int       `json:"responseTime"`
	FeedbackRating int       `json:"feedbackRating"`
	CreatedAt      time.Time `json:"createdAt"`
}

// QuestionPaper is a generated or authored exam paper. Questions holds the
// structured document exactly as the generator produced it.
type QuestionPaper struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Subject      string          `json:"subject"`
	Class        string          `json:"class"`
	ExamType     string          `json:"examType"`
	Duration     int             `json:"duration"`
	MaxMarks     int             `json:"maxMarks"`
	Instructions string          `json:"instructions"`
	Questions    json.RawMessage `json:"questions"`
	CreatedBy    string          `json:"createdBy"`
	IsPublished  bool            `json:"isPublished"`
	Tags         []string        `json:"tags"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// AnalyticsRow is one exported metric data point.
type AnalyticsRow struct {
	ID         int64           `json:"id"`
	MetricType string          `json:"metricType"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Value      float64         `json:"value"`
	Metadata   json.RawMessage `json:"metadata"`
	Period     string          `json:"period"`
	Date       string          `json:"date"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// DashboardMetrics is the headline summary pushed to dashboard clients.
// AttendanceRate is a one-decimal percentage string for client compatibility.
type DashboardMetrics struct {
	TotalStudents  int     `json:"totalStudents"`
	AttendanceRate string  `json:"attendanceRate"`
	FeeCollection  float64 `json:"feeCollection"`
	PendingTasks   int     `json:"pendingTasks"`
}
