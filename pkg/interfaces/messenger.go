package interfaces

import "context"

// Messenger is the outbound parent/teacher message channel (WhatsApp).
type Messenger interface {
	SendMessage(ctx context.Context, to, message, messageType string) error
	SendAttendanceAlert(ctx context.Context, studentName, parentPhone, status, date string) error
	SendFeeReminder(ctx context.Context, studentName, parentPhone string, amount float64, dueDate string) error
	SendInvigilationDuty(ctx context.Context, teacherName, teacherPhone, subject, class, date, startTime, endTime, room string) error
	SendSubstitutionNotice(ctx context.Context, teacherName, teacherPhone, class, section, subject string, period int, date, absentTeacher string) error
	VerifyWebhook(mode, token, challenge string) (string, bool)
	ProcessWebhook(ctx context.Context, payload []byte) error
}
