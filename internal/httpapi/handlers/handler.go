package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/audit"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/chat"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/common"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/config"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/dispatch"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/hubspot"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/httpapi/middleware"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/leads"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Cfg        config.Config
	ChatRepo   *chat.Repo
	Ingestor   *chat.Ingestor
	AuditRepo  *audit.Repo
	Dispatcher *dispatch.Dispatcher
	LeadEngine *leads.Engine
	Tokens     *hubspot.TokenSource
}

func NewHandler(gdb *gorm.DB, cfg config.Config, cache hubspot.TokenCache, events audit.EventPublisher) *Handler {
	chatRepo := chat.NewRepo(gdb)
	auditRepo := audit.NewRepo(gdb)

	client := hubspot.NewClient(cfg.HubSpotBaseURL, cfg.HubSpotTimeout)
	tokens := hubspot.NewTokenSource(gdb, cache, cfg.TokenEncryptionKey, cfg.HubSpotToken, cfg.TokenCacheTTL)
	dispatcher := dispatch.NewDispatcher(client, tokens, auditRepo, events)

	return &Handler{
		DB:         gdb,
		Cfg:        cfg,
		ChatRepo:   chatRepo,
		Ingestor:   chat.NewIngestor(chatRepo, auditRepo),
		AuditRepo:  auditRepo,
		Dispatcher: dispatcher,
		LeadEngine: leads.NewEngine(dispatcher, auditRepo),
		Tokens:     tokens,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

func unauthorized(c *gin.Context) {
	common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
}
