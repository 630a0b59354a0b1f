package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/common"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/dispatch"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/hubspot"
)

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

type crmActionReq struct {
	Method       string                `json:"method"`
	ObjectID     string                `json:"object_id"`
	Properties   map[string]string     `json:"properties"`
	Associations []hubspot.Association `json:"associations"`
	SessionID    string                `json:"session_id"`
	MessageID    *uint64               `json:"message_id"`
}

// CRMAction dispatches one generic CRM object action for the calling user
// and returns the audit outcome unmasked.
func (h *Handler) CRMAction(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	objectType := c.Param("object_type")
	if !hubspot.KnownObjectType(objectType) {
		common.Fail(c, http.StatusBadRequest, 10010, "unknown object type")
		return
	}

	var req crmActionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	out, err := h.Dispatcher.Dispatch(c.Request.Context(), dispatch.Request{
		LogType: dispatch.LogTypeForObject(objectType),
		Call: hubspot.Call{
			Method:       req.Method,
			ObjectType:   objectType,
			ObjectID:     req.ObjectID,
			Properties:   req.Properties,
			Associations: req.Associations,
		},
		UserID:    uid,
		SessionID: req.SessionID,
		MessageID: req.MessageID,
	})
	if err != nil {
		if errors.Is(err, hubspot.ErrNoCredential) {
			common.Fail(c, http.StatusPreconditionFailed, 41201, "no CRM credential configured")
			return
		}
		// local failure; the failed log was still written when out != nil
		if out != nil {
			common.OK(c, out)
			return
		}
		common.Fail(c, http.StatusBadGateway, 50201, "crm call failed")
		return
	}

	common.OK(c, out)
}
