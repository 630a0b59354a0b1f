package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/audit"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/common"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/config"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/httpapi/handlers"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/httpapi/middleware"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/hubspot"
	"gorm.io/gorm"
)

func NewRouter(db *gorm.DB, cfg config.Config, cache hubspot.TokenCache, events audit.EventPublisher) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(db, cfg, cache, events)

	r.GET("/ping", h.Ping)
	r.POST("/login", h.Login)

	// transport webhook; the sender is resolved by phone number
	r.POST("/webhook/whatsapp", h.WhatsAppWebhook)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))

	authGroup.GET("/me", h.Me)

	// user administration
	authGroup.POST("/users", h.CreateUser)
	authGroup.GET("/users/:id", h.GetUserByID)
	authGroup.POST("/users/:id/token", h.RotateToken)
	authGroup.POST("/users/:id/deactivate", h.DeactivateUser)

	// conversations
	authGroup.GET("/sessions/:session_id/messages", h.ListSessionMessages)
	authGroup.POST("/sessions/:session_id/close", h.CloseSession)
	authGroup.POST("/sessions/:session_id/send", h.RecordSend)

	// generic CRM actions (contacts, companies, deals, notes, tasks, calls, meetings)
	authGroup.POST("/crm/:object_type", h.CRMAction)

	// lead / deal state machine
	authGroup.POST("/leads", h.CreateLead)
	authGroup.POST("/leads/:id/qualify", h.QualifyLead)
	authGroup.POST("/leads/:id/status", h.UpdateLeadStatus)
	authGroup.POST("/deals/:id/stage", h.UpdateDealStage)

	// audit trail
	authGroup.GET("/logs", h.ListLogs)
	authGroup.GET("/logs/:id", h.GetLog)
	authGroup.POST("/logs/:id/retry", h.RetryLog)

	return r
}
