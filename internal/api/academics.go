package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"edumanage/pkg/types"
)

func (s *Server) handleListTimetable(c echo.Context) error {
	entries, err := s.opts.Storage.GetTimetable(c.Request().Context(), c.QueryParam("class"), c.QueryParam("section"))
	if err != nil {
		return s.fail(c, err, "Failed to fetch timetable")
	}
	return c.JSON(http.StatusOK, entries)
}

type timetableEntryRequest struct {
	Class     string `json:"class" validate:"required"`
	Section   string `json:"section" validate:"required"`
	Day       string `json:"day" validate:"required"`
	Period    int    `json:"period" validate:"required,min=1"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	TeacherID string `json:"teacherId"`
	Room      string `json:"room"`
}

func (s *Server) handleCreateTimetableEntry(c echo.Context) error {
	var req timetableEntryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	entry := &types.TimetableEntry{
		Class:     req.Class,
		Section:   req.Section,
		Day:       req.Day,
		Period:    req.Period,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Subject:   req.Subject,
		TeacherID: req.TeacherID,
		Room:      req.Room,
		IsActive:  true,
	}
	if err := s.opts.Storage.CreateTimetableEntry(c.Request().Context(), entry); err != nil {
		return s.fail(c, err, "Failed to create timetable entry")
	}

	if err := s.opts.Broadcaster.Broadcast(types.NewEventNotification(types.EventTimetableUpdate, entry)); err != nil {
		log.Printf("failed to broadcast timetable update: %v", err)
	}

	return c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleDeleteTimetableEntry(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid timetable entry id"})
	}

	if err := s.opts.Storage.DeleteTimetableEntry(c.Request().Context(), id); err != nil {
		return s.fail(c, err, "Failed to delete timetable entry")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListExams(c echo.Context) error {
	exams, err := s.opts.Storage.GetExamSchedule(c.Request().Context())
	if err != nil {
		return s.fail(c, err, "Failed to fetch exam schedule")
	}
	return c.JSON(http.StatusOK, exams)
}

type examRequest struct {
	ExamName  string `json:"examName" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	Class     string `json:"class" validate:"required"`
	Section   string `json:"section"`
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	Room      string `json:"room"`
	MaxMarks  int    `json:"maxMarks"`
}

func (s *Server) handleCreateExam(c echo.Context) error {
	var req examRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	exam := &types.ExamSchedule{
		ExamName:  req.ExamName,
		Subject:   req.Subject,
		Class:     req.Class,
		Section:   req.Section,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Room:      req.Room,
		MaxMarks:  req.MaxMarks,
		IsActive:  true,
	}
	if err := s.opts.Storage.CreateExamSchedule(c.Request().Context(), exam); err != nil {
		return s.fail(c, err, "Failed to create exam")
	}
	return c.JSON(http.StatusCreated, exam)
}

func (s *Server) handleListInvigilation(c echo.Context) error {
	duties, err := s.opts.Storage.GetInvigilationDuties(c.Request().Context(), c.QueryParam("teacherId"))
	if err != nil {
		return s.fail(c, err, "Failed to fetch invigilation duties")
	}
	return c.JSON(http.StatusOK, duties)
}

type invigilationRequest struct {
	ExamID          int64  `json:"examId" validate:"required"`
	TeacherID       string `json:"teacherId" validate:"required"`
	Room            string `json:"room" validate:"required"`
	Date            string `json:"date" validate:"required"`
	StartTime       string `json:"startTime" validate:"required"`
	EndTime         string `json:"endTime" validate:"required"`
	IsExempted      bool   `json:"isExempted"`
	ExemptionReason string `json:"exemptionReason"`

	// Optional notification target; when present the teacher is told over
	// WhatsApp.
	TeacherName  string `json:"teacherName"`
	TeacherPhone string `json:"teacherPhone"`
	Subject      string `json:"subject"`
	Class        string `json:"class"`
}

func (s *Server) handleAssignInvigilation(c echo.Context) error {
	var req invigilationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	duty := &types.InvigilationDuty{
		ExamID:          req.ExamID,
		TeacherID:       req.TeacherID,
		Room:            req.Room,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		IsExempted:      req.IsExempted,
		ExemptionReason: req.ExemptionReason,
	}
	if err := s.opts.Storage.AssignInvigilationDuty(ctx, duty); err != nil {
		return s.fail(c, err, "Failed to assign invigilation duty")
	}

	if req.TeacherPhone != "" && !duty.IsExempted {
		err := s.opts.Messenger.SendInvigilationDuty(ctx, req.TeacherName, req.TeacherPhone,
			req.Subject, req.Class, duty.Date, duty.StartTime, duty.EndTime, duty.Room)
		if err != nil {
			log.Printf("failed to send invigilation notice to %s: %v", req.TeacherID, err)
		}
	}

	if err := s.opts.Broadcaster.Broadcast(types.NewEventNotification(types.EventInvigilationUpdate, duty)); err != nil {
		log.Printf("failed to broadcast invigilation update: %v", err)
	}

	return c.JSON(http.StatusCreated, duty)
}

func (s *Server) handleListBehavior(c echo.Context) error {
	var studentID int64
	if param := c.QueryParam("studentId"); param != "" {
		id, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid student id"})
		}
		studentID = id
	}

	records, err := s.opts.Storage.GetBehaviorRecords(c.Request().Context(), studentID)
	if err != nil {
		return s.fail(c, err, "Failed to fetch behavior records")
	}
	return c.JSON(http.StatusOK, records)
}

type behaviorRequest struct {
	StudentID        int64  `json:"studentId" validate:"required"`
	TeacherID        string `json:"teacherId"`
	Type             string `json:"type" validate:"required"`
	Category         string `json:"category"`
	Description      string `json:"description" validate:"required"`
	Severity         string `json:"severity"`
	ActionTaken      string `json:"actionTaken"`
	ParentNotified   bool   `json:"parentNotified"`
	FollowUpRequired bool   `json:"followUpRequired"`
	Date             string `json:"date" validate:"required"`
}

func (s *Server) handleCreateBehavior(c echo.Context) error {
	var req behaviorRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	record := &types.BehaviorRecord{
		StudentID:        req.StudentID,
		TeacherID:        req.TeacherID,
		Type:             req.Type,
		Category:         req.Category,
		Description:      req.Description,
		Severity:         req.Severity,
		ActionTaken:      req.ActionTaken,
		ParentNotified:   req.ParentNotified,
		FollowUpRequired: req.FollowUpRequired,
		Date:             req.Date,
	}
	if err := s.opts.Storage.CreateBehaviorRecord(c.Request().Context(), record); err != nil {
		return s.fail(c, err, "Failed to create behavior record")
	}

	if err := s.opts.Broadcaster.Broadcast(types.NewEventNotification(types.EventBehaviorUpdate, record)); err != nil {
		log.Printf("failed to broadcast behavior update: %v", err)
	}

	return c.JSON(http.StatusCreated, record)
}

func (s *Server) handleListSubstitutions(c echo.Context) error {
	subs, err := s.opts.Storage.GetSubstitutions(c.Request().Context(), c.QueryParam("date"))
	if err != nil {
		return s.fail(c, err, "Failed to fetch substitutions")
	}
	return c.JSON(http.StatusOK, subs)
}

type substitutionRequest struct {
	AbsentTeacherID     string `json:"absentTeacherId" validate:"required"`
	SubstituteTeacherID string `json:"substituteTeacherId" validate:"required"`
	Class               string `json:"class" validate:"required"`
	Section             string `json:"section" validate:"required"`
	Subject             string `json:"subject" validate:"required"`
	Period              int    `json:"period" validate:"required,min=1"`
	Date                string `json:"date" validate:"required"`
	Reason              string `json:"reason"`

	// Optional notification target for the substitute teacher.
	SubstituteName    string `json:"substituteName"`
	SubstitutePhone   string `json:"substitutePhone"`
	AbsentTeacherName string `json:"absentTeacherName"`
}

func (s *Server) handleCreateSubstitution(c echo.Context) error {
	var req substitutionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	sub := &types.Substitution{
		AbsentTeacherID:     req.AbsentTeacherID,
		SubstituteTeacherID: req.SubstituteTeacherID,
		Class:               req.Class,
		Section:             req.Section,
		Subject:             req.Subject,
		Period:              req.Period,
		Date:                req.Date,
		Reason:              req.Reason,
		Status:              "assigned",
	}

	if req.SubstitutePhone != "" {
		err := s.opts.Messenger.SendSubstitutionNotice(ctx, req.SubstituteName, req.SubstitutePhone,
			sub.Class, sub.Section, sub.Subject, sub.Period, sub.Date, req.AbsentTeacherName)
		if err != nil {
			log.Printf("failed to send substitution notice to %s: %v", sub.SubstituteTeacherID, err)
		} else {
			sub.NotificationSent = true
		}
	}

	if err := s.opts.Storage.CreateSubstitution(ctx, sub); err != nil {
		return s.fail(c, err, "Failed to create substitution")
	}

	if err := s.opts.Broadcaster.Broadcast(types.NewEventNotification(types.EventSubstitutionUpdate, sub)); err != nil {
		log.Printf("failed to broadcast substitution update: %v", err)
	}

	return c.JSON(http.StatusCreated, sub)
}
