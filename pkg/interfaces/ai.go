package interfaces

import (
	"context"
	"encoding/json"

	"edumanage/pkg/types"
)

// Intent is the classification result for one assistant query.
type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// BehaviorAnalysis is the structured result of a behavior-pattern review.
type BehaviorAnalysis struct {
	Analysis        string   `json:"analysis"`
	Patterns        []string `json:"patterns"`
	Recommendations []string `json:"recommendations"`
	RiskLevel       string   `json:"riskLevel"`
}

// Assistant is the AI query gateway: a narrow request/response wrapper around
// a third-party language-model API.
type Assistant interface {
	ProcessQuery(ctx context.Context, message, userID, sessionID string) (string, error)
	ClassifyIntent(ctx context.Context, message string) (*Intent, error)
	GenerateQuestionPaper(ctx context.Context, subject, class, examType string, duration int) (json.RawMessage, error)
	AnalyzeBehavior(ctx context.Context, records []*types.BehaviorRecord) (*BehaviorAnalysis, error)
}
