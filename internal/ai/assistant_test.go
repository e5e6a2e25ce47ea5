package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"edumanage/internal/config"
	"edumanage/pkg/types"
)

type stubStore struct {
	feeStats        *types.FeeStats
	attendanceStats *types.AttendanceStats
	exams           []*types.ExamSchedule
	students        []*types.Student

	savedHistory []*types.ChatHistoryEntry
	savedPapers  []*types.QuestionPaper
}

func (s *stubStore) GetFeeCollectionStats(ctx context.Context) (*types.FeeStats, error) {
	if s.feeStats == nil {
		return &types.FeeStats{}, nil
	}
	return s.feeStats, nil
}

func (s *stubStore) GetAttendanceStats(ctx context.Context, class, section string) (*types.AttendanceStats, error) {
	if s.attendanceStats == nil {
		return &types.AttendanceStats{}, nil
	}
	return s.attendanceStats, nil
}

func (s *stubStore) GetExamSchedule(ctx context.Context) ([]*types.ExamSchedule, error) {
	return s.exams, nil
}

func (s *stubStore) GetStudents(ctx context.Context) ([]*types.Student, error) {
	return s.students, nil
}

func (s *stubStore) SaveChatHistory(ctx context.Context, entry *types.ChatHistoryEntry) error {
	s.savedHistory = append(s.savedHistory, entry)
	return nil
}

func (s *stubStore) CreateQuestionPaper(ctx context.Context, paper *types.QuestionPaper) error {
	s.savedPapers = append(s.savedPapers, paper)
	return nil
}

// completionServer fakes the chat-completions endpoint. The respond callback
// sees the decoded request and returns the assistant message content.
func completionServer(t *testing.T, respond func(req apiRequest) (string, int)) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", auth)
		}

		var req apiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		content, status := respond(req)
		w.WriteHeader(status)
		if status != http.StatusOK {
			fmt.Fprintf(w, `{"error":{"message":"boom","type":"server_error"}}`)
			return
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestAssistant(t *testing.T, store *stubStore, respond func(req apiRequest) (string, int)) *Assistant {
	t.Helper()
	server := completionServer(t, respond)
	return NewAssistant(config.OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o",
	}, store)
}

func TestClassifyIntent(t *testing.T) {
	assistant := newTestAssistant(t, &stubStore{}, func(req apiRequest) (string, int) {
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Error("expected JSON mode for intent classification")
		}
		return `{"intent":"fee_inquiry","confidence":0.92}`, http.StatusOK
	})

	intent, err := assistant.ClassifyIntent(context.Background(), "when is the tuition fee due?")
	if err != nil {
		t.Fatalf("classification failed: %v", err)
	}
	if intent.Name != "fee_inquiry" || intent.Confidence != 0.92 {
		t.Errorf("intent mismatch: %+v", intent)
	}
}

func TestClassifyIntentFallsBackOnError(t *testing.T) {
	assistant := newTestAssistant(t, &stubStore{}, func(req apiRequest) (string, int) {
		return "", http.StatusInternalServerError
	})

	intent, err := assistant.ClassifyIntent(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected graceful fallback, got error: %v", err)
	}
	if intent.Name != "other" || intent.Confidence != 0.5 {
		t.Errorf("expected catch-all intent, got %+v", intent)
	}
}

func TestClassifyIntentFallsBackOnGarbage(t *testing.T) {
	assistant := newTestAssistant(t, &stubStore{}, func(req apiRequest) (string, int) {
		return "not json at all", http.StatusOK
	})

	intent, err := assistant.ClassifyIntent(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected graceful fallback, got error: %v", err)
	}
	if intent.Name != "other" {
		t.Errorf("expected catch-all intent, got %+v", intent)
	}
}

func TestProcessQueryEnrichesPromptAndSavesHistory(t *testing.T) {
	store := &stubStore{
		feeStats: &types.FeeStats{TotalCollected: 100000, TotalPending: 25000, TotalOverdue: 5000},
	}

	assistant := newTestAssistant(t, store, func(req apiRequest) (string, int) {
		if req.ResponseFormat != nil {
			return `{"intent":"fee_inquiry","confidence":0.9}`, http.StatusOK
		}
		// The answer call carries the fee context in the system prompt.
		if !strings.Contains(req.Messages[0].Content, "Total Pending: ₹25000.00") {
			t.Errorf("expected fee context in system prompt, got: %s", req.Messages[0].Content)
		}
		return "Your pending fees total ₹25,000.", http.StatusOK
	})

	response, err := assistant.ProcessQuery(context.Background(), "what fees are pending?", "u1", "s1")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if response != "Your pending fees total ₹25,000." {
		t.Errorf("unexpected response: %q", response)
	}

	if len(store.savedHistory) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(store.savedHistory))
	}
	entry := store.savedHistory[0]
	if entry.Intent != "fee_inquiry" || entry.SessionID != "s1" || entry.UserID != "u1" {
		t.Errorf("history entry mismatch: %+v", entry)
	}
	if entry.ResponseTime < 0 {
		t.Errorf("expected non-negative response time, got %d", entry.ResponseTime)
	}
}

func TestProcessQueryWithoutSessionSkipsHistory(t *testing.T) {
	store := &stubStore{}
	assistant := newTestAssistant(t, store, func(req apiRequest) (string, int) {
		if req.ResponseFormat != nil {
			return `{"intent":"general_info","confidence":0.8}`, http.StatusOK
		}
		return "The school opens at 8am.", http.StatusOK
	})

	if _, err := assistant.ProcessQuery(context.Background(), "opening hours?", "", ""); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(store.savedHistory) != 0 {
		t.Errorf("expected no history without a session, got %d entries", len(store.savedHistory))
	}
}

func TestProcessQueryDegradesToCannedResponse(t *testing.T) {
	calls := 0
	assistant := newTestAssistant(t, &stubStore{}, func(req apiRequest) (string, int) {
		calls++
		if req.ResponseFormat != nil {
			return `{"intent":"general_info","confidence":0.8}`, http.StatusOK
		}
		return "", http.StatusInternalServerError
	})

	response, err := assistant.ProcessQuery(context.Background(), "hello", "", "")
	if err != nil {
		t.Fatalf("expected degraded response, got error: %v", err)
	}
	if response != fallbackResponse {
		t.Errorf("expected canned apology, got %q", response)
	}
}

func TestGenerateQuestionPaper(t *testing.T) {
	paperJSON := `{"title":"Class 10 Math Midterm","instructions":["Answer all questions","Use blue ink"],"sections":[{"name":"Section A","questions":[{"questionNumber":1,"question":"2+2?","marks":2,"type":"objective"},{"questionNumber":2,"question":"Prove Pythagoras","marks":8,"type":"long"}]}]}`

	store := &stubStore{}
	assistant := newTestAssistant(t, store, func(req apiRequest) (string, int) {
		return paperJSON, http.StatusOK
	})

	doc, err := assistant.GenerateQuestionPaper(context.Background(), "math", "10", "midterm", 120)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if string(doc) != paperJSON {
		t.Errorf("expected generated document returned verbatim")
	}

	if len(store.savedPapers) != 1 {
		t.Fatalf("expected 1 stored paper, got %d", len(store.savedPapers))
	}
	paper := store.savedPapers[0]
	if paper.MaxMarks != 10 {
		t.Errorf("expected max marks summed from questions, got %d", paper.MaxMarks)
	}
	if paper.CreatedBy != "vipu-ai" || paper.IsPublished {
		t.Errorf("expected unpublished assistant-authored paper: %+v", paper)
	}
	if len(paper.Tags) != 3 || paper.Tags[0] != "math" {
		t.Errorf("tags mismatch: %v", paper.Tags)
	}
	if paper.Instructions != "Answer all questions\nUse blue ink" {
		t.Errorf("instructions mismatch: %q", paper.Instructions)
	}
}

func TestAnalyzeBehaviorShortCircuitsOnEmptyRecords(t *testing.T) {
	assistant := newTestAssistant(t, &stubStore{}, func(req apiRequest) (string, int) {
		t.Error("no model call expected for empty record set")
		return "", http.StatusInternalServerError
	})

	analysis, err := assistant.AnalyzeBehavior(context.Background(), nil)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if analysis.Analysis != "No behavior records found for this student." {
		t.Errorf("unexpected analysis: %q", analysis.Analysis)
	}
	if analysis.Recommendations == nil || len(analysis.Recommendations) != 0 {
		t.Errorf("expected empty recommendations slice, got %v", analysis.Recommendations)
	}
}

func TestAnalyzeBehaviorParsesStructuredResult(t *testing.T) {
	assistant := newTestAssistant(t, &stubStore{}, func(req apiRequest) (string, int) {
		if !strings.Contains(req.Messages[1].Content, "2026-08-20: incident - discipline - disrupted class") {
			t.Errorf("expected record summary in prompt, got: %s", req.Messages[1].Content)
		}
		return `{"analysis":"Recurring disruptions","patterns":["disruption"],"recommendations":["counseling"],"riskLevel":"medium"}`, http.StatusOK
	})

	records := []*types.BehaviorRecord{
		{Date: "2026-08-20", Type: "incident", Category: "discipline", Description: "disrupted class"},
	}
	analysis, err := assistant.AnalyzeBehavior(context.Background(), records)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if analysis.RiskLevel != "medium" || len(analysis.Patterns) != 1 {
		t.Errorf("analysis mismatch: %+v", analysis)
	}
}
