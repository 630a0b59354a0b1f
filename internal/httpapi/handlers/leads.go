package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/common"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/hubspot"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/leads"
)

type createLeadReq struct {
	Email      string            `json:"email"`
	FirstName  string            `json:"first_name"`
	LastName   string            `json:"last_name"`
	Phone      string            `json:"phone"`
	Company    string            `json:"company"`
	LeadSource string            `json:"lead_source"`
	Properties map[string]string `json:"properties"`
	SessionID  string            `json:"session_id"`
	MessageID  *uint64           `json:"message_id"`
}

func (h *Handler) CreateLead(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req createLeadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	out, err := h.LeadEngine.CreateLead(c.Request.Context(), uid, leads.CreateLeadParams{
		Contact: hubspot.ContactProperties{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
			Company:   req.Company,
			Raw:       req.Properties,
		},
		LeadSource: req.LeadSource,
		SessionID:  req.SessionID,
		MessageID:  req.MessageID,
	})
	if err != nil && out == nil {
		common.Fail(c, http.StatusBadGateway, 50201, "crm call failed")
		return
	}
	common.OK(c, out)
}

type qualifyLeadReq struct {
	LeadStatus string  `json:"lead_status"`
	CreateDeal bool    `json:"create_deal"`
	DealName   string  `json:"deal_name"`
	DealAmount string  `json:"deal_amount"`
	DealStage  string  `json:"deal_stage"`
	CloseDate  string  `json:"close_date"`
	SessionID  string  `json:"session_id"`
	MessageID  *uint64 `json:"message_id"`
}

func (h *Handler) QualifyLead(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}
	leadID := c.Param("id")

	var req qualifyLeadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	result, err := h.LeadEngine.QualifyLead(c.Request.Context(), uid, leadID, leads.QualifyParams{
		LeadStatus: req.LeadStatus,
		CreateDeal: req.CreateDeal,
		DealName:   req.DealName,
		DealAmount: req.DealAmount,
		DealStage:  req.DealStage,
		CloseDate:  req.CloseDate,
		SessionID:  req.SessionID,
		MessageID:  req.MessageID,
	})
	if err != nil {
		switch {
		case errors.Is(err, leads.ErrUnknownLeadStatus), errors.Is(err, leads.ErrUnknownStage):
			common.Fail(c, http.StatusBadRequest, 10011, err.Error())
			return
		case result != nil:
			// partial outcome: qualification state is already recorded
			common.OK(c, result)
			return
		default:
			common.Fail(c, http.StatusBadGateway, 50201, "crm call failed")
			return
		}
	}

	common.OK(c, result)
}

type leadStatusReq struct {
	LeadStatus string  `json:"lead_status" binding:"required"`
	SessionID  string  `json:"session_id"`
	MessageID  *uint64 `json:"message_id"`
}

func (h *Handler) UpdateLeadStatus(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}
	leadID := c.Param("id")

	var req leadStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	out, err := h.LeadEngine.UpdateLeadStatus(c.Request.Context(), uid, leadID, req.LeadStatus, req.SessionID, req.MessageID)
	if err != nil {
		switch {
		case errors.Is(err, leads.ErrUnknownLeadStatus):
			common.Fail(c, http.StatusBadRequest, 10011, err.Error())
		case errors.Is(err, leads.ErrBadTransition):
			common.Fail(c, http.StatusConflict, 40901, err.Error())
		case out != nil:
			common.OK(c, out)
		default:
			common.Fail(c, http.StatusBadGateway, 50201, "crm call failed")
		}
		return
	}
	common.OK(c, out)
}

type dealStageReq struct {
	Stage     string  `json:"stage" binding:"required"`
	Reason    string  `json:"reason"`
	SessionID string  `json:"session_id"`
	MessageID *uint64 `json:"message_id"`
}

func (h *Handler) UpdateDealStage(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}
	dealID := c.Param("id")

	var req dealStageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	result, err := h.LeadEngine.UpdateDealStage(c.Request.Context(), uid, dealID, req.Stage, req.Reason, req.SessionID, req.MessageID)
	if err != nil {
		if errors.Is(err, leads.ErrUnknownStage) {
			common.Fail(c, http.StatusBadRequest, 10012, err.Error())
			return
		}
		common.Fail(c, http.StatusBadGateway, 50201, "crm call failed")
		return
	}
	common.OK(c, result)
}
