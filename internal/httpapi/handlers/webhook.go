package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/chat"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/common"
)

// WhatsAppWebhook ingests one inbound message event. Unknown senders are
// acknowledged and skipped so the transport does not redeliver.
func (h *Handler) WhatsAppWebhook(c *gin.Context) {
	var ev chat.InboundMessage
	if err := c.ShouldBindJSON(&ev); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid webhook payload")
		return
	}

	sess, msg, err := h.Ingestor.Ingest(c.Request.Context(), ev)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to ingest message")
		return
	}
	if sess == nil {
		common.OK(c, gin.H{"skipped": true})
		return
	}

	common.OK(c, gin.H{
		"skipped":    false,
		"session_id": sess.SessionID,
		"message_id": msg.ID,
	})
}

type sendReq struct {
	Text   string `json:"text" binding:"required"`
	SendID string `json:"send_id" binding:"required"`
}

// RecordSend records an outbound WhatsApp message against a session.
func (h *Handler) RecordSend(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	msg, err := h.Ingestor.RecordOutbound(c.Request.Context(), sessionID, req.Text, req.SendID)
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40004, "session not found")
		return
	}

	common.OK(c, gin.H{"message_id": msg.ID})
}

func (h *Handler) CloseSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	sess, err := h.ChatRepo.CloseSession(c.Request.Context(), sessionID)
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40005, "no active session with that id")
		return
	}
	common.OK(c, sess)
}

func (h *Handler) ListSessionMessages(c *gin.Context) {
	sessionID := c.Param("session_id")

	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := parseUint(v); err == nil {
			limit = int(n)
		}
	}
	var beforeID uint64
	if v := c.Query("before_id"); v != "" {
		if n, err := parseUint(v); err == nil {
			beforeID = n
		}
	}

	msgs, err := h.ChatRepo.ListMessages(c.Request.Context(), sessionID, limit, beforeID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{"messages": msgs})
}
