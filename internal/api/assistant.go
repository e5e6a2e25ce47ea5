package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"edumanage/pkg/types"
)

type chatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

func (s *Server) handleAssistantChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	response, err := s.opts.Assistant.ProcessQuery(c.Request().Context(), req.Message, req.UserID, req.SessionID)
	if err != nil {
		return s.fail(c, err, "Failed to process AI query")
	}
	return c.JSON(http.StatusOK, map[string]string{"response": response})
}

func (s *Server) handleAssistantHistory(c echo.Context) error {
	history, err := s.opts.Storage.GetChatHistory(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return s.fail(c, err, "Failed to fetch chat history")
	}
	return c.JSON(http.StatusOK, history)
}

type generatePaperRequest struct {
	Subject   string `json:"subject" validate:"required"`
	ClassName string `json:"className" validate:"required"`
	ExamType  string `json:"examType" validate:"required"`
	Duration  int    `json:"duration" validate:"required,min=1"`
}

func (s *Server) handleGenerateQuestionPaper(c echo.Context) error {
	var req generatePaperRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	doc, err := s.opts.Assistant.GenerateQuestionPaper(c.Request().Context(), req.Subject, req.ClassName, req.ExamType, req.Duration)
	if err != nil {
		return s.fail(c, err, "Failed to generate question paper")
	}
	return c.JSONBlob(http.StatusOK, doc)
}

func (s *Server) handleAnalyzeBehavior(c echo.Context) error {
	studentID, err := strconv.ParseInt(c.Param("studentId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid student id"})
	}

	ctx := c.Request().Context()
	records, err := s.opts.Storage.GetBehaviorRecords(ctx, studentID)
	if err != nil {
		return s.fail(c, err, "Failed to fetch behavior records")
	}

	analysis, err := s.opts.Assistant.AnalyzeBehavior(ctx, records)
	if err != nil {
		return s.fail(c, err, "Failed to analyze behavior")
	}
	return c.JSON(http.StatusOK, analysis)
}

func (s *Server) handleListQuestionPapers(c echo.Context) error {
	papers, err := s.opts.Storage.GetQuestionPapers(c.Request().Context())
	if err != nil {
		return s.fail(c, err, "Failed to fetch question papers")
	}
	return c.JSON(http.StatusOK, papers)
}

type createPaperRequest struct {
	Title        string          `json:"title" validate:"required"`
	Subject      string          `json:"subject" validate:"required"`
	Class        string          `json:"class" validate:"required"`
	ExamType     string          `json:"examType"`
	Duration     int             `json:"duration"`
	MaxMarks     int             `json:"maxMarks"`
	Instructions string          `json:"instructions"`
	Questions    json.RawMessage `json:"questions"`
	CreatedBy    string          `json:"createdBy"`
	IsPublished  bool            `json:"isPublished"`
	Tags         []string        `json:"tags"`
}

func (s *Server) handleCreateQuestionPaper(c echo.Context) error {
	var req createPaperRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	paper := &types.QuestionPaper{
		Title:        req.Title,
		Subject:      req.Subject,
		Class:        req.Class,
		ExamType:     req.ExamType,
		Duration:     req.Duration,
		MaxMarks:     req.MaxMarks,
		Instructions: req.Instructions,
		Questions:    req.Questions,
		CreatedBy:    req.CreatedBy,
		IsPublished:  req.IsPublished,
		Tags:         req.Tags,
	}
	if err := s.opts.Storage.CreateQuestionPaper(c.Request().Context(), paper); err != nil {
		return s.fail(c, err, "Failed to create question paper")
	}
	return c.JSON(http.StatusCreated, paper)
}
