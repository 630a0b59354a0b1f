package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/audit"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/common"
	"gorm.io/gorm"
)

// ListLogs returns the calling user's audit trail, newest first.
func (h *Handler) ListLogs(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	f := audit.Filter{
		UserID:    uid,
		SessionID: c.Query("session_id"),
		LogType:   audit.LogType(c.Query("log_type")),
		Status:    audit.SyncStatus(c.Query("sync_status")),
	}
	if v := c.Query("limit"); v != "" {
		if n, err := parseUint(v); err == nil {
			f.Limit = int(n)
		}
	}
	if v := c.Query("before_id"); v != "" {
		if n, err := parseUint(v); err == nil {
			f.BeforeID = n
		}
	}

	logs, err := h.AuditRepo.List(c.Request.Context(), f)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	out := make([]map[string]any, 0, len(logs))
	for i := range logs {
		out = append(out, logs[i].ToDict())
	}
	common.OK(c, gin.H{"logs": out})
}

func (h *Handler) GetLog(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	id, err := parseUint(c.Param("id"))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10005, "invalid log id")
		return
	}

	l, err := h.AuditRepo.GetByID(c.Request.Context(), id)
	if err != nil || l.UserID != uid {
		common.Fail(c, http.StatusNotFound, 40402, "log not found")
		return
	}
	common.OK(c, l.ToDict())
}

// RetryLog resets a log to pending. It does not re-run the CRM call.
func (h *Handler) RetryLog(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	id, err := parseUint(c.Param("id"))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10005, "invalid log id")
		return
	}

	l, err := h.AuditRepo.GetByID(c.Request.Context(), id)
	if err != nil || l.UserID != uid {
		common.Fail(c, http.StatusNotFound, 40402, "log not found")
		return
	}

	reset, err := h.AuditRepo.RetrySync(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "log not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, reset.ToDict())
}
