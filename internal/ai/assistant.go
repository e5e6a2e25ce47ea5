package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"edumanage/internal/config"
	"edumanage/pkg/interfaces"
	"edumanage/pkg/types"
)

const systemPrompt = `You are Vipu, an AI assistant for EduManage Pro school management system. You help parents, teachers, and administrators with school-related queries.

You can provide information about:
- Student fees and payment status
- Attendance records and statistics
- Exam schedules and timetables
- Academic performance and reports
- School events and announcements
- Teacher duty assignments
- Student behavior records
- General school policies and procedures

Always be helpful, professional, and provide accurate information. When you don't have specific information, offer to help the user find the right person to contact.

For fee queries, attendance, or specific student information, always ask for verification details like student ID or roll number for security.

Keep responses concise but informative. Use emojis appropriately to make responses friendly.`

const intentPrompt = `Analyze the user's message and classify the intent. Respond with JSON in this format: { "intent": "intent_name", "confidence": 0.95 }

Possible intents:
- fee_inquiry: Questions about fees, payments, due dates
- attendance_check: Questions about attendance records
- exam_schedule: Questions about exams, dates, timetables
- academic_performance: Questions about grades, reports
- general_info: General school information
- behavior_inquiry: Questions about student behavior
- contact_info: Requesting contact information
- other: Anything else`

const fallbackResponse = "I'm experiencing technical difficulties. Please try again later or contact school support."

// Store is the slice of the persistence gateway the assistant consumes for
// contextual lookups and result persistence.
type Store interface {
	GetFeeCollectionStats(ctx context.Context) (*types.FeeStats, error)
	GetAttendanceStats(ctx context.Context, class, section string) (*types.AttendanceStats, error)
	GetExamSchedule(ctx context.Context) ([]*types.ExamSchedule, error)
	GetStudents(ctx context.Context) ([]*types.Student, error)
	SaveChatHistory(ctx context.Context, entry *types.ChatHistoryEntry) error
	CreateQuestionPaper(ctx context.Context, paper *types.QuestionPaper) error
}

// Assistant answers school queries through a language model, enriching
// prompts with live data from the store.
type Assistant struct {
	client *Client
	store  Store
}

var _ interfaces.Assistant = (*Assistant)(nil)

// NewAssistant creates the assistant gateway.
func NewAssistant(cfg config.OpenAIConfig, store Store) *Assistant {
	return &Assistant{
		client: NewClient(cfg),
		store:  store,
	}
}

// ProcessQuery classifies the message, gathers contextual facts for the
// detected intent, and generates the reply. Model failures degrade to a
// canned apology rather than an error so the chat surface stays responsive.
func (a *Assistant) ProcessQuery(ctx context.Context, message, userID, sessionID string) (string, error) {
	start := time.Now()

	intent, err := a.ClassifyIntent(ctx, message)
	if err != nil {
		return "", err
	}

	prompt := systemPrompt
	if facts := a.contextFor(ctx, intent.Name); facts != "" {
		prompt += "\n\nRelevant Information:\n" + facts
	}

	response, err := a.client.Complete(ctx, CompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: message},
		},
		MaxTokens:   300,
		Temperature: 0.7,
	})
	if err != nil {
		log.Printf("assistant query failed: %v", err)
		return fallbackResponse, nil
	}

	if sessionID != "" {
		entry := &types.ChatHistoryEntry{
			UserID:       userID,
			SessionID:    sessionID,
			UserMessage:  message,
			AIResponse:   response,
			Intent:       intent.Name,
			Confidence:   intent.Confidence,
			ResponseTime: int(time.Since(start).Milliseconds()),
		}
		if err := a.store.SaveChatHistory(ctx, entry); err != nil {
			log.Printf("failed to save chat history: %v", err)
		}
	}

	return response, nil
}

// ClassifyIntent labels the message with one of the known intents. Any model
// or parse failure falls back to the catch-all intent instead of erroring.
func (a *Assistant) ClassifyIntent(ctx context.Context, message string) (*interfaces.Intent, error) {
	content, err := a.client.Complete(ctx, CompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: intentPrompt},
			{Role: "user", Content: message},
		},
		MaxTokens: 100,
		JSONMode:  true,
	})
	if err != nil {
		log.Printf("intent classification failed: %v", err)
		return &interfaces.Intent{Name: "other", Confidence: 0.5}, nil
	}

	var parsed struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || parsed.Intent == "" {
		return &interfaces.Intent{Name: "other", Confidence: 0.5}, nil
	}

	return &interfaces.Intent{Name: parsed.Intent, Confidence: parsed.Confidence}, nil
}

// contextFor assembles live facts for intents that benefit from them. Lookup
// failures yield an empty context; the model answers without enrichment.
func (a *Assistant) contextFor(ctx context.Context, intent string) string {
	switch intent {
	case "fee_inquiry":
		stats, err := a.store.GetFeeCollectionStats(ctx)
		if err != nil {
			log.Printf("failed to load fee context: %v", err)
			return ""
		}
		return fmt.Sprintf(
			"Current Fee Collection Statistics:\n- Total Collected: ₹%.2f\n- Total Pending: ₹%.2f\n- Total Overdue: ₹%.2f\n\nFor specific student fee information, please provide the student ID or roll number.",
			stats.TotalCollected, stats.TotalPending, stats.TotalOverdue,
		)

	case "attendance_check":
		stats, err := a.store.GetAttendanceStats(ctx, "", "")
		if err != nil {
			log.Printf("failed to load attendance context: %v", err)
			return ""
		}
		return fmt.Sprintf(
			"Current Attendance Statistics:\n- Overall Attendance Rate: %.1f%%\n- Students Present Today: %d\n- Students Absent Today: %d\n\nFor specific student attendance, please provide the student ID or roll number.",
			stats.AttendanceRate, stats.Present, stats.Absent,
		)

	case "exam_schedule":
		exams, err := a.store.GetExamSchedule(ctx)
		if err != nil {
			log.Printf("failed to load exam context: %v", err)
			return ""
		}
		if len(exams) == 0 {
			return "No upcoming exams scheduled at the moment."
		}
		if len(exams) > 5 {
			exams = exams[:5]
		}
		var lines []string
		for _, exam := range exams {
			section := ""
			if exam.Section != "" {
				section = " " + exam.Section
			}
			lines = append(lines, fmt.Sprintf("- %s (%s%s): %s at %s", exam.Subject, exam.Class, section, exam.Date, exam.StartTime))
		}
		return "Upcoming Exams:\n" + strings.Join(lines, "\n")

	case "academic_performance":
		students, err := a.store.GetStudents(ctx)
		if err != nil {
			log.Printf("failed to load academic context: %v", err)
			return ""
		}
		return fmt.Sprintf(
			"Academic Overview:\n- Total Active Students: %d\n\nFor specific student performance reports, please provide the student ID or roll number.",
			len(students),
		)
	}

	return ""
}

const paperPrompt = `You are an expert educator creating examination question papers. Generate a comprehensive question paper in JSON format with the following structure:

{
  "title": "Question Paper Title",
  "instructions": ["Instruction 1", "Instruction 2"],
  "sections": [
    {
      "name": "Section A",
      "instructions": "Section specific instructions",
      "questions": [
        {
          "questionNumber": 1,
          "question": "Question text",
          "marks": 2,
          "type": "objective/short/long"
        }
      ]
    }
  ]
}

Create questions appropriate for the grade level with proper mark distribution.`

type paperDocument struct {
	Title        string   `json:"title"`
	Instructions []string `json:"instructions"`
	Sections     []struct {
		Name         string `json:"name"`
		Instructions string `json:"instructions"`
		Questions    []struct {
			QuestionNumber int    `json:"questionNumber"`
			Question       string `json:"question"`
			Marks          int    `json:"marks"`
			Type           string `json:"type"`
		} `json:"questions"`
	} `json:"sections"`
}

// GenerateQuestionPaper asks the model for a structured paper, stores it
// unpublished under the assistant's authorship, and returns the document
// exactly as generated.
func (a *Assistant) GenerateQuestionPaper(ctx context.Context, subject, class, examType string, duration int) (json.RawMessage, error) {
	content, err := a.client.Complete(ctx, CompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: paperPrompt},
			{Role: "user", Content: fmt.Sprintf(
				"Create a %s question paper for %s subject for Class %s. Duration: %d minutes. Include a mix of objective, short answer, and long answer questions with appropriate mark distribution.",
				examType, subject, class, duration,
			)},
		},
		MaxTokens: 2000,
		JSONMode:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate question paper: %w", err)
	}

	var doc paperDocument
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse generated paper: %w", err)
	}

	maxMarks := 0
	for _, section := range doc.Sections {
		for _, q := range section.Questions {
			maxMarks += q.Marks
		}
	}

	paper := &types.QuestionPaper{
		Title:        doc.Title,
		Subject:      subject,
		Class:        class,
		ExamType:     examType,
		Duration:     duration,
		MaxMarks:     maxMarks,
		Instructions: strings.Join(doc.Instructions, "\n"),
		Questions:    json.RawMessage(content),
		CreatedBy:    "vipu-ai",
		IsPublished:  false,
		Tags:         []string{subject, class, examType},
	}
	if err := a.store.CreateQuestionPaper(ctx, paper); err != nil {
		return nil, fmt.Errorf("failed to store question paper: %w", err)
	}

	return json.RawMessage(content), nil
}

// AnalyzeBehavior reviews a student's behavior records and returns a
// structured assessment. An empty record set short-circuits without a model
// call.
func (a *Assistant) AnalyzeBehavior(ctx context.Context, records []*types.BehaviorRecord) (*interfaces.BehaviorAnalysis, error) {
	if len(records) == 0 {
		return &interfaces.BehaviorAnalysis{
			Analysis:        "No behavior records found for this student.",
			Recommendations: []string{},
		}, nil
	}

	var lines []string
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("%s: %s - %s - %s", r.Date, r.Type, r.Category, r.Description))
	}

	content, err := a.client.Complete(ctx, CompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: `You are an educational psychologist analyzing student behavior patterns. Provide insights and recommendations in JSON format:

{
  "analysis": "Overall behavior analysis",
  "patterns": ["Pattern 1", "Pattern 2"],
  "recommendations": ["Recommendation 1", "Recommendation 2"],
  "riskLevel": "low/medium/high"
}`},
			{Role: "user", Content: "Analyze the following behavior records for a student:\n\n" + strings.Join(lines, "\n")},
		},
		MaxTokens: 800,
		JSONMode:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze behavior: %w", err)
	}

	var analysis interfaces.BehaviorAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse behavior analysis: %w", err)
	}
	return &analysis, nil
}

// GenerateInvitationText drafts a formal invitation for a school event.
func (a *Assistant) GenerateInvitationText(ctx context.Context, eventType string, eventDetails map[string]interface{}) (string, error) {
	details, err := json.Marshal(eventDetails)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event details: %w", err)
	}

	content, err := a.client.Complete(ctx, CompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: "You are an expert at creating formal school event invitations. Create professional, warm, and engaging invitation text for school events."},
			{Role: "user", Content: fmt.Sprintf("Create an invitation for a %s with the following details: %s", eventType, details)},
		},
		MaxTokens: 500,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate invitation: %w", err)
	}
	return content, nil
}
