package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"edumanage/internal/config"
	"edumanage/pkg/interfaces"
)

// Options carries the server's collaborators. WebSocketHandler is mounted at
// /ws so dashboard clients share the HTTP listener.
type Options struct {
	Config           config.HTTPConfig
	Storage          interfaces.Storage
	Broadcaster      interfaces.Broadcaster
	Assistant        interfaces.Assistant
	Messenger        interfaces.Messenger
	WebSocketHandler http.HandlerFunc
}

// Server is the REST surface of the school administration backend.
type Server struct {
	opts Options
	app  *echo.Echo
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// NewServer builds the HTTP server and registers all routes.
func NewServer(opts Options) *Server {
	s := &Server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.Logger())
	s.app.Use(middleware.Recover())
	s.app.Use(middleware.CORS())

	s.app.Validator = &requestValidator{validate: validator.New()}

	s.app.GET("/health", s.handleHealth)
	if s.opts.WebSocketHandler != nil {
		s.app.GET("/ws", echo.WrapHandler(s.opts.WebSocketHandler))
	}

	api := s.app.Group("/api")

	api.GET("/dashboard/metrics", s.handleDashboardMetrics)

	api.GET("/students", s.handleListStudents)
	api.GET("/students/:id", s.handleGetStudent)
	api.POST("/students", s.handleCreateStudent)

	api.GET("/teachers", s.handleListTeachers)
	api.POST("/teachers", s.handleCreateTeacher)

	api.GET("/attendance", s.handleListAttendance)
	api.POST("/attendance", s.handleMarkAttendance)
	api.GET("/attendance/stats", s.handleAttendanceStats)

	api.GET("/fees", s.handleListFees)
	api.POST("/fees", s.handleCreateFee)
	api.PUT("/fees/:id", s.handleUpdateFee)
	api.GET("/fees/stats", s.handleFeeStats)

	api.GET("/timetable", s.handleListTimetable)
	api.POST("/timetable", s.handleCreateTimetableEntry)
	api.DELETE("/timetable/:id", s.handleDeleteTimetableEntry)

	api.GET("/exams", s.handleListExams)
	api.POST("/exams", s.handleCreateExam)

	api.GET("/invigilation", s.handleListInvigilation)
	api.POST("/invigilation", s.handleAssignInvigilation)

	api.GET("/behavior", s.handleListBehavior)
	api.POST("/behavior", s.handleCreateBehavior)

	api.GET("/substitutions", s.handleListSubstitutions)
	api.POST("/substitutions", s.handleCreateSubstitution)

	api.POST("/whatsapp/send", s.handleWhatsAppSend)
	api.GET("/whatsapp/notifications", s.handleWhatsAppNotifications)
	api.GET("/whatsapp/webhook", s.handleWhatsAppWebhookVerify)
	api.POST("/whatsapp/webhook", s.handleWhatsAppWebhookEvent)

	api.POST("/ai/chat", s.handleAssistantChat)
	api.GET("/ai/chat/history/:sessionId", s.handleAssistantHistory)
	api.POST("/ai/generate-question-paper", s.handleGenerateQuestionPaper)
	api.POST("/ai/analyze-behavior/:studentId", s.handleAnalyzeBehavior)

	api.GET("/question-papers", s.handleListQuestionPapers)
	api.POST("/question-papers", s.handleCreateQuestionPaper)

	api.GET("/analytics/export", s.handleAnalyticsExport)
	api.POST("/analytics", s.handleSaveAnalyticsRow)
}

// Start begins serving on the configured address and blocks.
func (s *Server) Start() error {
	server := &http.Server{
		Addr:         s.opts.Config.Addr(),
		ReadTimeout:  s.opts.Config.ReadTimeout,
		WriteTimeout: s.opts.Config.WriteTimeout,
	}
	return s.app.StartServer(server)
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// ServeHTTP lets tests drive the router without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// fail logs the cause and answers with a stable public message, mapping
// not-found sentinels to 404.
func (s *Server) fail(c echo.Context, err error, message string) error {
	if errors.Is(err, interfaces.ErrStudentNotFound) ||
		errors.Is(err, interfaces.ErrTeacherNotFound) ||
		errors.Is(err, interfaces.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"message": err.Error()})
	}
	log.Printf("%s: %v", message, err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"message": message})
}
