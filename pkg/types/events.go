package types

import "time"

// Event notification type tags. The set is closed: the dispatcher rejects
// anything else before delivery.
const (
	EventDashboardMetrics   = "dashboard_metrics"
	EventAttendanceUpdate   = "attendance_update"
	EventFeeUpdate          = "fee_update"
	EventTimetableUpdate    = "timetable_update"
	EventInvigilationUpdate = "invigilation_update"
	EventSubstitutionUpdate = "substitution_update"
	EventBehaviorUpdate     = "behavior_update"
	EventWhatsAppUpdate     = "whatsapp_update"
)

// EventNotification is an application-level fact pushed to connected clients.
// It is never persisted, queued, or retried: delivery is at-most-once to the
// sockets registered at dispatch time.
type EventNotification struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEventNotification stamps a notification with the current server time.
func NewEventNotification(eventType string, data interface{}) *EventNotification {
	return &EventNotification{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// IsValidEventType reports whether t belongs to the closed event set.
func IsValidEventType(t string) bool {
	switch t {
	case EventDashboardMetrics,
		EventAttendanceUpdate,
		EventFeeUpdate,
		EventTimetableUpdate,
		EventInvigilationUpdate,
		EventSubstitutionUpdate,
		EventBehaviorUpdate,
		EventWhatsAppUpdate:
		return true
	}
	return false
}

// IsValidRole reports whether r is a known staff role.
func IsValidRole(r string) bool {
	switch r {
	case RoleAdmin, RolePrincipal, RoleVicePrincipal, RoleTeacher, RoleClassTeacher:
		return true
	}
	return false
}
