package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"edumanage/internal/config"
	"edumanage/pkg/interfaces"
)

// Service sends parent and teacher notifications through the WhatsApp Cloud
// API and handles its inbound webhook.
type Service struct {
	apiKey         string
	businessNumber string
	baseURL        string
	verifyToken    string
	httpClient     *http.Client
}

var _ interfaces.Messenger = (*Service)(nil)

// NewService creates the messenger gateway.
func NewService(cfg config.WhatsAppConfig) *Service {
	return &Service{
		apiKey:         cfg.APIKey,
		businessNumber: cfg.BusinessNumber,
		baseURL:        cfg.BaseURL,
		verifyToken:    cfg.VerifyToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type outboundMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// SendMessage delivers one text message. messageType labels the notification
// for logging; the wire type is always text.
func (s *Service) SendMessage(ctx context.Context, to, message, messageType string) error {
	payload := outboundMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
	}
	payload.Text.Body = message

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.businessNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build message request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("message send failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("whatsapp API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	log.Printf("whatsapp %s sent to %s", messageType, to)
	return nil
}

// SendAttendanceAlert notifies a parent of their child's attendance status.
func (s *Service) SendAttendanceAlert(ctx context.Context, studentName, parentPhone, status, date string) error {
	emoji := "✅"
	advice := "Thank you for ensuring regular attendance."
	switch status {
	case "absent":
		emoji = "❌"
		advice = "Please ensure regular attendance for better academic performance."
	case "late":
		emoji = "⏰"
		advice = "Please ensure timely arrival to school."
	}

	message := fmt.Sprintf(`🎓 *EduManage Pro Attendance Update*

Dear Parent,

Attendance update for *%s*:

📅 Date: %s
%s Status: %s

%s

For any concerns, please contact the class teacher.

*EduManage Pro School Management*`,
		studentName, date, emoji, strings.ToUpper(status), advice)

	return s.SendMessage(ctx, parentPhone, message, "attendance_alert")
}

// SendFeeReminder notifies a parent of a due fee payment.
func (s *Service) SendFeeReminder(ctx context.Context, studentName, parentPhone string, amount float64, dueDate string) error {
	message := fmt.Sprintf(`🎓 *EduManage Pro Fee Reminder*

Dear Parent,

This is a friendly reminder that the fee payment for *%s* is due.

📋 *Details:*
Amount: ₹%.2f
Due Date: %s

💳 *Payment Options:*
- Online: Visit our payment portal
- Bank Transfer: Account details shared earlier
- Cash: Pay at school office

For any queries, please contact the school office.

Thank you for your cooperation.

*EduManage Pro School Management*`,
		studentName, amount, dueDate)

	return s.SendMessage(ctx, parentPhone, message, "fee_reminder")
}

// SendInvigilationDuty notifies a teacher of an exam supervision assignment.
func (s *Service) SendInvigilationDuty(ctx context.Context, teacherName, teacherPhone, subject, class, date, startTime, endTime, room string) error {
	message := fmt.Sprintf(`🎓 *EduManage Pro Invigilation Duty*

Dear %s,

You have been assigned invigilation duty:

📋 *Exam Details:*
Subject: %s
Class: %s
Date: %s
Time: %s - %s
Room: %s

Please be present 15 minutes before the exam starts.

For any changes or queries, contact the exam coordinator.

*EduManage Pro School Management*`,
		teacherName, subject, class, date, startTime, endTime, room)

	return s.SendMessage(ctx, teacherPhone, message, "invigilation_duty")
}

// SendSubstitutionNotice notifies a teacher of a cover assignment.
func (s *Service) SendSubstitutionNotice(ctx context.Context, teacherName, teacherPhone, class, section, subject string, period int, date, absentTeacher string) error {
	message := fmt.Sprintf(`🎓 *EduManage Pro Substitution Assignment*

Dear %s,

You have been assigned a substitution class:

📋 *Details:*
Class: %s %s
Subject: %s
Period: %d
Date: %s
Absent Teacher: %s

Please check your schedule and confirm availability.

*EduManage Pro School Management*`,
		teacherName, class, section, subject, period, date, absentTeacher)

	return s.SendMessage(ctx, teacherPhone, message, "substitution_notification")
}

// VerifyWebhook answers the Cloud API subscription handshake. It returns the
// challenge to echo and whether the verification succeeded.
func (s *Service) VerifyWebhook(mode, token, challenge string) (string, bool) {
	if mode == "subscribe" && token == s.verifyToken {
		return challenge, true
	}
	return "", false
}

type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ProcessWebhook handles an inbound Cloud API event. Only the first message
// of the first change is inspected; status-only events are ignored.
func (s *Service) ProcessWebhook(ctx context.Context, payload []byte) error {
	var event webhookPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	if len(event.Entry) == 0 || len(event.Entry[0].Changes) == 0 {
		return nil
	}
	messages := event.Entry[0].Changes[0].Value.Messages
	if len(messages) == 0 {
		return nil
	}

	log.Printf("received whatsapp message from %s: %s", messages[0].From, messages[0].Text.Body)
	return nil
}
