package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"edumanage/pkg/types"
)

// GetBehaviorRecords returns behavior entries, optionally for one student.
// Pass a zero studentID for the school-wide list.
func (m *Manager) GetBehaviorRecords(ctx context.Context, studentID int64) ([]*types.BehaviorRecord, error) {
	query := `
		SELECT id, student_id, teacher_id, type, category, description, severity, action_taken, parent_notified, follow_up_required, date, created_at
		FROM behavior_records
	`
	var args []interface{}
	if studentID != 0 {
		query += ` WHERE student_id = ?`
		args = append(args, studentID)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query behavior records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*types.BehaviorRecord
	for rows.Next() {
		var r types.BehaviorRecord
		err := rows.Scan(
			&r.ID, &r.StudentID, &r.TeacherID, &r.Type, &r.Category,
			&r.Description, &r.Severity, &r.ActionTaken, &r.ParentNotified,
			&r.FollowUpRequired, &r.Date, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan behavior record: %w", err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// CreateBehaviorRecord inserts a behavior entry and backfills the generated ID.
func (m *Manager) CreateBehaviorRecord(ctx context.Context, record *types.BehaviorRecord) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO behavior_records (student_id, teacher_id, type, category, description, severity, action_taken, parent_notified, follow_up_required, date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := db.ExecContext(ctx, query,
			record.StudentID, record.TeacherID, record.Type, record.Category,
			record.Description, record.Severity, record.ActionTaken, record.ParentNotified,
			record.FollowUpRequired, record.Date,
		)
		if err != nil {
			return fmt.Errorf("failed to insert behavior record: %w", err)
		}
		record.ID, err = res.LastInsertId()
		return err
	})
}

// CreateWhatsAppNotification logs an outbound message and backfills the
// generated ID.
func (m *Manager) CreateWhatsAppNotification(ctx context.Context, n *types.WhatsAppNotification) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO whatsapp_notifications (recipient_phone, recipient_name, message_type, message, status, sent_at, error_message, related_entity_id, related_entity_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := db.ExecContext(ctx, query,
			n.RecipientPhone, n.RecipientName, n.MessageType, n.Message, n.Status,
			n.SentAt, n.ErrorMessage, n.RelatedEntityID, n.RelatedEntityType,
		)
		if err != nil {
			return fmt.Errorf("failed to insert whatsapp notification: %w", err)
		}
		n.ID, err = res.LastInsertId()
		return err
	})
}

// GetWhatsAppNotifications returns logged messages, optionally filtered by
// delivery status.
func (m *Manager) GetWhatsAppNotifications(ctx context.Context, status string) ([]*types.WhatsAppNotification, error) {
	query := `
		SELECT id, recipient_phone, recipient_name, message_type, message, status, sent_at, delivered_at, error_message, related_entity_id, related_entity_type, created_at
		FROM whatsapp_notifications
	`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query whatsapp notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []*types.WhatsAppNotification
	for rows.Next() {
		var n types.WhatsAppNotification
		var sentAt, deliveredAt sql.NullTime
		err := rows.Scan(
			&n.ID, &n.RecipientPhone, &n.RecipientName, &n.MessageType, &n.Message,
			&n.Status, &sentAt, &deliveredAt, &n.ErrorMessage,
			&n.RelatedEntityID, &n.RelatedEntityType, &n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan whatsapp notification: %w", err)
		}
		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		if deliveredAt.Valid {
			n.DeliveredAt = &deliveredAt.Time
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// SaveChatHistory stores one assistant exchange and backfills the generated ID.
func (m *Manager) SaveChatHistory(ctx context.Context, entry *types.ChatHistoryEntry) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO ai_chat_history (user_id, session_id, user_message, ai_response, intent, confidence, response_time, feedback_rating)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := db.ExecContext(ctx, query,
			entry.UserID, entry.SessionID, entry.UserMessage, entry.AIResponse,
			entry.Intent, entry.Confidence, entry.ResponseTime, entry.FeedbackRating,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chat history: %w", err)
		}
		entry.ID, err = res.LastInsertId()
		return err
	})
}

// GetChatHistory returns one session's exchanges in chronological order.
func (m *Manager) GetChatHistory(ctx context.Context, sessionID string) ([]*types.ChatHistoryEntry, error) {
	query := `
		SELECT id, user_id, session_id, user_message, ai_response, intent, confidence, response_time, feedback_rating, created_at
		FROM ai_chat_history
		WHERE session_id = ?
		ORDER BY created_at, id
	`

	rows, err := m.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*types.ChatHistoryEntry
	for rows.Next() {
		var e types.ChatHistoryEntry
		err := rows.Scan(
			&e.ID, &e.UserID, &e.SessionID, &e.UserMessage, &e.AIResponse,
			&e.Intent, &e.Confidence, &e.ResponseTime, &e.FeedbackRating, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat history entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// GetQuestionPapers returns all papers, newest first.
func (m *Manager) GetQuestionPapers(ctx context.Context) ([]*types.QuestionPaper, error) {
	query := `
		SELECT id, title, subject, class, exam_type, duration, max_marks, instructions, questions, created_by, is_published, tags, created_at
		FROM question_papers
		ORDER BY created_at DESC
	`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query question papers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var papers []*types.QuestionPaper
	for rows.Next() {
		var p types.QuestionPaper
		var questionsJSON, tagsJSON string
		err := rows.Scan(
			&p.ID, &p.Title, &p.Subject, &p.Class, &p.ExamType,
			&p.Duration, &p.MaxMarks, &p.Instructions, &questionsJSON,
			&p.CreatedBy, &p.IsPublished, &tagsJSON, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question paper: %w", err)
		}
		p.Questions = json.RawMessage(questionsJSON)
		if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
		papers = append(papers, &p)
	}
	return papers, rows.Err()
}

// CreateQuestionPaper stores a paper and backfills the generated ID. Questions
// are persisted verbatim as the generator produced them.
func (m *Manager) CreateQuestionPaper(ctx context.Context, paper *types.QuestionPaper) error {
	return m.executeWrite(func(db *sql.DB) error {
		tagsJSON, err := json.Marshal(paper.Tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags: %w", err)
		}
		questions := string(paper.Questions)
		if questions == "" {
			questions = "{}"
		}

		query := `
			INSERT INTO question_papers (title, subject, class, exam_type, duration, max_marks, instructions, questions, created_by, is_published, tags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := db.ExecContext(ctx, query,
			paper.Title, paper.Subject, paper.Class, paper.ExamType,
			paper.Duration, paper.MaxMarks, paper.Instructions, questions,
			paper.CreatedBy, paper.IsPublished, string(tagsJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to insert question paper: %w", err)
		}
		paper.ID, err = res.LastInsertId()
		return err
	})
}

// SaveAnalyticsRow stores one exported metric data point.
func (m *Manager) SaveAnalyticsRow(ctx context.Context, row *types.AnalyticsRow) error {
	return m.executeWrite(func(db *sql.DB) error {
		metadata := string(row.Metadata)
		if metadata == "" {
			metadata = "{}"
		}

		query := `
			INSERT INTO analytics_data (metric_type, entity_type, entity_id, value, metadata, period, date)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		res, err := db.ExecContext(ctx, query,
			row.MetricType, row.EntityType, row.EntityID, row.Value,
			metadata, row.Period, row.Date,
		)
		if err != nil {
			return fmt.Errorf("failed to insert analytics row: %w", err)
		}
		row.ID, err = res.LastInsertId()
		return err
	})
}

// GetAnalyticsRows returns metric data points filtered by type and date range.
// Empty filter values are ignored.
func (m *Manager) GetAnalyticsRows(ctx context.Context, metricType, startDate, endDate string) ([]*types.AnalyticsRow, error) {
	query := `
		SELECT id, metric_type, entity_type, entity_id, value, metadata, period, date, created_at
		FROM analytics_data
		WHERE 1 = 1
	`
	var args []interface{}
	if metricType != "" {
		query += ` AND metric_type = ?`
		args = append(args, metricType)
	}
	if startDate != "" {
		query += ` AND date >= ?`
		args = append(args, startDate)
	}
	if endDate != "" {
		query += ` AND date <= ?`
		args = append(args, endDate)
	}
	query += ` ORDER BY date, id`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analytics rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.AnalyticsRow
	for rows.Next() {
		var r types.AnalyticsRow
		var metadata string
		err := rows.Scan(
			&r.ID, &r.MetricType, &r.EntityType, &r.EntityID, &r.Value,
			&metadata, &r.Period, &r.Date, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analytics row: %w", err)
		}
		r.Metadata = json.RawMessage(metadata)
		out = append(out, &r)
	}
	return out, rows.Err()
}
