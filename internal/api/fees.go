package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"edumanage/pkg/types"
)

func (s *Server) handleListFees(c echo.Context) error {
	ctx := c.Request().Context()

	if studentID := c.QueryParam("studentId"); studentID != "" {
		id, err := strconv.ParseInt(studentID, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid student id"})
		}
		records, err := s.opts.Storage.GetFeeRecordsByStudent(ctx, id)
		if err != nil {
			return s.fail(c, err, "Failed to fetch fee records")
		}
		return c.JSON(http.StatusOK, records)
	}

	records, err := s.opts.Storage.GetFeeRecords(ctx)
	if err != nil {
		return s.fail(c, err, "Failed to fetch fee records")
	}
	return c.JSON(http.StatusOK, records)
}

type feeRecordRequest struct {
	StudentID     int64   `json:"studentId" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	FeeType       string  `json:"feeType" validate:"required"`
	DueDate       string  `json:"dueDate"`
	PaidDate      string  `json:"paidDate"`
	Status        string  `json:"status" validate:"omitempty,oneof=pending paid overdue"`
	PaymentMethod string  `json:"paymentMethod"`
	TransactionID string  `json:"transactionId"`
	Notes         string  `json:"notes"`
}

func (s *Server) handleCreateFee(c echo.Context) error {
	var req feeRecordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.Status == "" {
		req.Status = types.FeePending
	}
	record := &types.FeeRecord{
		StudentID:     req.StudentID,
		Amount:        req.Amount,
		FeeType:       req.FeeType,
		DueDate:       req.DueDate,
		PaidDate:      req.PaidDate,
		Status:        req.Status,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	}
	if err := s.opts.Storage.CreateFeeRecord(c.Request().Context(), record); err != nil {
		return s.fail(c, err, "Failed to create fee record")
	}
	return c.JSON(http.StatusCreated, record)
}

// handleUpdateFee rewrites a fee record. When the update marks it paid, the
// parent receives a payment confirmation and all dashboards see a fee_update.
func (s *Server) handleUpdateFee(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid fee record id"})
	}

	var req feeRecordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	record := &types.FeeRecord{
		ID:            id,
		StudentID:     req.StudentID,
		Amount:        req.Amount,
		FeeType:       req.FeeType,
		DueDate:       req.DueDate,
		PaidDate:      req.PaidDate,
		Status:        req.Status,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	}
	if err := s.opts.Storage.UpdateFeeRecord(ctx, record); err != nil {
		return s.fail(c, err, "Failed to update fee record")
	}

	if record.Status == types.FeePaid {
		student, err := s.opts.Storage.GetStudentByID(ctx, record.StudentID)
		if err != nil {
			log.Printf("failed to load student %d for payment receipt: %v", record.StudentID, err)
		} else if student.ParentPhone != "" {
			receipt := fmt.Sprintf("Payment of ₹%.2f received for %s %s. Transaction ID: %s",
				record.Amount, student.FirstName, student.LastName, record.TransactionID)
			if err := s.opts.Messenger.SendMessage(ctx, student.ParentPhone, receipt, "fee_payment"); err != nil {
				log.Printf("failed to send payment receipt for fee %d: %v", record.ID, err)
			}
		}
	}

	if err := s.opts.Broadcaster.Broadcast(types.NewEventNotification(types.EventFeeUpdate, record)); err != nil {
		log.Printf("failed to broadcast fee update: %v", err)
	}

	return c.JSON(http.StatusOK, record)
}

func (s *Server) handleFeeStats(c echo.Context) error {
	stats, err := s.opts.Storage.GetFeeCollectionStats(c.Request().Context())
	if err != nil {
		return s.fail(c, err, "Failed to fetch fee stats")
	}
	return c.JSON(http.StatusOK, stats)
}
