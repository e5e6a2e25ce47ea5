package api

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"edumanage/pkg/types"
)

type sendMessageRequest struct {
	To          string `json:"to" validate:"required"`
	Message     string `json:"message" validate:"required"`
	MessageType string `json:"messageType"`
}

// handleWhatsAppSend delivers an ad-hoc message and logs the outcome. A
// failed send is recorded too, so the notifications list reflects reality.
func (s *Server) handleWhatsAppSend(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.MessageType == "" {
		req.MessageType = "text"
	}

	ctx := c.Request().Context()
	record := &types.WhatsAppNotification{
		RecipientPhone: req.To,
		MessageType:    req.MessageType,
		Message:        req.Message,
	}

	sendErr := s.opts.Messenger.SendMessage(ctx, req.To, req.Message, req.MessageType)
	if sendErr != nil {
		record.Status = "failed"
		record.ErrorMessage = sendErr.Error()
	} else {
		now := time.Now()
		record.Status = "sent"
		record.SentAt = &now
	}

	if err := s.opts.Storage.CreateWhatsAppNotification(ctx, record); err != nil {
		log.Printf("failed to log whatsapp notification: %v", err)
	}

	if sendErr != nil {
		return s.fail(c, sendErr, "Failed to send WhatsApp message")
	}

	if err := s.opts.Broadcaster.Broadcast(types.NewEventNotification(types.EventWhatsAppUpdate, record)); err != nil {
		log.Printf("failed to broadcast whatsapp update: %v", err)
	}

	return c.JSON(http.StatusOK, record)
}

func (s *Server) handleWhatsAppNotifications(c echo.Context) error {
	notifications, err := s.opts.Storage.GetWhatsAppNotifications(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return s.fail(c, err, "Failed to fetch WhatsApp notifications")
	}
	return c.JSON(http.StatusOK, notifications)
}

// handleWhatsAppWebhookVerify answers the Cloud API subscription handshake.
func (s *Server) handleWhatsAppWebhookVerify(c echo.Context) error {
	challenge, ok := s.opts.Messenger.VerifyWebhook(
		c.QueryParam("hub.mode"),
		c.QueryParam("hub.verify_token"),
		c.QueryParam("hub.challenge"),
	)
	if !ok {
		return c.String(http.StatusForbidden, "Forbidden")
	}
	return c.String(http.StatusOK, challenge)
}

func (s *Server) handleWhatsAppWebhookEvent(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.String(http.StatusBadRequest, "Error")
	}

	if err := s.opts.Messenger.ProcessWebhook(c.Request().Context(), payload); err != nil {
		log.Printf("whatsapp webhook error: %v", err)
		return c.String(http.StatusInternalServerError, "Error")
	}
	return c.String(http.StatusOK, "OK")
}
