package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"edumanage/pkg/types"
)

func (s *Server) handleDashboardMetrics(c echo.Context) error {
	metrics, err := s.opts.Storage.GetDashboardMetrics(c.Request().Context())
	if err != nil {
		return s.fail(c, err, "Failed to fetch dashboard metrics")
	}
	return c.JSON(http.StatusOK, metrics)
}

func (s *Server) handleListStudents(c echo.Context) error {
	ctx := c.Request().Context()

	class := c.QueryParam("class")
	section := c.QueryParam("section")
	if class != "" || section != "" {
		students, err := s.opts.Storage.GetStudentsByClass(ctx, class, section)
		if err != nil {
			return s.fail(c, err, "Failed to fetch students")
		}
		return c.JSON(http.StatusOK, students)
	}

	students, err := s.opts.Storage.GetStudents(ctx)
	if err != nil {
		return s.fail(c, err, "Failed to fetch students")
	}
	return c.JSON(http.StatusOK, students)
}

func (s *Server) handleGetStudent(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid student id"})
	}

	student, err := s.opts.Storage.GetStudentByID(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err, "Failed to fetch student")
	}
	return c.JSON(http.StatusOK, student)
}

type createStudentRequest struct {
	StudentID     string  `json:"studentId" validate:"required"`
	FirstName     string  `json:"firstName" validate:"required"`
	LastName      string  `json:"lastName" validate:"required"`
	Email         string  `json:"email" validate:"omitempty,email"`
	Phone         string  `json:"phone"`
	ParentPhone   string  `json:"parentPhone"`
	ParentEmail   string  `json:"parentEmail" validate:"omitempty,email"`
	Class         string  `json:"class" validate:"required"`
	Section       string  `json:"section" validate:"required"`
	RollNumber    int     `json:"rollNumber"`
	DateOfBirth   string  `json:"dateOfBirth"`
	Address       string  `json:"address"`
	TotalFees     float64 `json:"totalFees"`
	AdmissionDate string  `json:"admissionDate"`
}

func (s *Server) handleCreateStudent(c echo.Context) error {
	var req createStudentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	student := &types.Student{
		StudentID:     req.StudentID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		ParentPhone:   req.ParentPhone,
		ParentEmail:   req.ParentEmail,
		Class:         req.Class,
		Section:       req.Section,
		RollNumber:    req.RollNumber,
		DateOfBirth:   req.DateOfBirth,
		Address:       req.Address,
		FeeStatus:     types.FeePending,
		TotalFees:     req.TotalFees,
		AdmissionDate: req.AdmissionDate,
		IsActive:      true,
	}
	if err := s.opts.Storage.CreateStudent(c.Request().Context(), student); err != nil {
		return s.fail(c, err, "Failed to create student")
	}
	return c.JSON(http.StatusCreated, student)
}

func (s *Server) handleListTeachers(c echo.Context) error {
	teachers, err := s.opts.Storage.GetTeachers(c.Request().Context())
	if err != nil {
		return s.fail(c, err, "Failed to fetch teachers")
	}
	return c.JSON(http.StatusOK, teachers)
}

type createTeacherRequest struct {
	UserID     string   `json:"userId"`
	EmployeeID string   `json:"employeeId" validate:"required"`
	Subjects   []string `json:"subjects"`
	Classes    []string `json:"classes"`
	Department string   `json:"department"`
	DutyFactor float64  `json:"dutyFactor"`
}

func (s *Server) handleCreateTeacher(c echo.Context) error {
	var req createTeacherRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.DutyFactor == 0 {
		req.DutyFactor = 1.0
	}
	teacher := &types.Teacher{
		UserID:     req.UserID,
		EmployeeID: req.EmployeeID,
		Subjects:   req.Subjects,
		Classes:    req.Classes,
		Department: req.Department,
		DutyFactor: req.DutyFactor,
		Status:     "ACTIVE",
	}
	if err := s.opts.Storage.CreateTeacher(c.Request().Context(), teacher); err != nil {
		return s.fail(c, err, "Failed to create teacher")
	}
	return c.JSON(http.StatusCreated, teacher)
}
