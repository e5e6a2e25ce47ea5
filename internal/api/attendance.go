package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"edumanage/pkg/types"
)

func (s *Server) handleListAttendance(c echo.Context) error {
	ctx := c.Request().Context()

	if studentID := c.QueryParam("studentId"); studentID != "" {
		id, err := strconv.ParseInt(studentID, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid student id"})
		}
		endDate := c.QueryParam("endDate")
		if endDate == "" {
			// Lexicographic upper bound so an open range covers all dates.
			endDate = "9999-12-31"
		}
		records, err := s.opts.Storage.GetAttendanceByStudent(ctx, id, c.QueryParam("startDate"), endDate)
		if err != nil {
			return s.fail(c, err, "Failed to fetch attendance")
		}
		return c.JSON(http.StatusOK, records)
	}

	date := orToday(c.QueryParam("date"))
	records, err := s.opts.Storage.GetAttendanceByDate(ctx, date)
	if err != nil {
		return s.fail(c, err, "Failed to fetch attendance")
	}
	return c.JSON(http.StatusOK, records)
}

type markAttendanceRequest struct {
	StudentID int64  `json:"studentId" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused"`
	MarkedBy  string `json:"markedBy"`
	Notes     string `json:"notes"`
}

// handleMarkAttendance records the status, alerts the parent over WhatsApp on
// an absence, and pushes the mutation to all dashboard clients. Notification
// failures are logged; the attendance write has already committed.
func (s *Server) handleMarkAttendance(c echo.Context) error {
	var req markAttendanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	record := &types.AttendanceRecord{
		StudentID: req.StudentID,
		Date:      req.Date,
		Status:    req.Status,
		MarkedBy:  req.MarkedBy,
		Notes:     req.Notes,
	}
	if err := s.opts.Storage.MarkAttendance(ctx, record); err != nil {
		return s.fail(c, err, "Failed to mark attendance")
	}

	if record.Status == types.AttendanceAbsent {
		student, err := s.opts.Storage.GetStudentByID(ctx, record.StudentID)
		if err != nil {
			log.Printf("failed to load student %d for absence alert: %v", record.StudentID, err)
		} else if student.ParentPhone != "" {
			name := fmt.Sprintf("%s %s", student.FirstName, student.LastName)
			if err := s.opts.Messenger.SendAttendanceAlert(ctx, name, student.ParentPhone, record.Status, record.Date); err != nil {
				log.Printf("failed to send absence alert for student %d: %v", record.StudentID, err)
			}
		}
	}

	if err := s.opts.Broadcaster.Broadcast(types.NewEventNotification(types.EventAttendanceUpdate, record)); err != nil {
		log.Printf("failed to broadcast attendance update: %v", err)
	}

	return c.JSON(http.StatusCreated, record)
}

func (s *Server) handleAttendanceStats(c echo.Context) error {
	stats, err := s.opts.Storage.GetAttendanceStats(c.Request().Context(), c.QueryParam("class"), c.QueryParam("section"))
	if err != nil {
		return s.fail(c, err, "Failed to fetch attendance stats")
	}
	return c.JSON(http.StatusOK, stats)
}

func orToday(date string) string {
	if date != "" {
		return date
	}
	return time.Now().Format("2006-01-02")
}
