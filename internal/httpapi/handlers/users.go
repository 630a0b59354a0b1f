package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/auth"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/common"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/models"
	"gorm.io/gorm"
)

type createUserReq struct {
	PhoneNumber  string `json:"phone_number" binding:"required"`
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	HubSpotToken string `json:"hubspot_token"`
}

// CreateUser registers a salesperson. The HubSpot token, when given, is
// encrypted at rest.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to hash password")
		return
	}

	encrypted := ""
	if req.HubSpotToken != "" {
		encrypted, err = auth.EncryptToken(req.HubSpotToken, h.Cfg.TokenEncryptionKey)
		if err != nil {
			common.Fail(c, http.StatusInternalServerError, 20007, "failed to encrypt token")
			return
		}
	}

	user := models.User{
		PhoneNumber:  req.PhoneNumber,
		Username:     req.Username,
		PasswordHash: hash,
		Active:       true,
		HubSpotToken: encrypted,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		common.Fail(c, http.StatusBadRequest, 10003, "failed to create user (phone or username may already exist)")
		return
	}

	common.OK(c, gin.H{
		"id":           user.ID,
		"phone_number": user.PhoneNumber,
		"username":     user.Username,
	})
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		common.Fail(c, http.StatusUnauthorized, 40103, "bad credentials")
		return
	}
	if !user.Active || !auth.CheckPassword(user.PasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40103, "bad credentials")
		return
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	common.OK(c, gin.H{"token": token, "user_id": user.ID})
}

func (h *Handler) Me(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	var user models.User
	if err := h.DB.First(&user, uid).Error; err != nil {
		common.Fail(c, http.StatusNotFound, 40401, "user not found")
		return
	}
	common.OK(c, user)
}

type rotateTokenReq struct {
	HubSpotToken string `json:"hubspot_token" binding:"required"`
}

// RotateToken replaces a user's CRM credential and drops the cached copy.
func (h *Handler) RotateToken(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid user id")
		return
	}

	var req rotateTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	encrypted, err := auth.EncryptToken(req.HubSpotToken, h.Cfg.TokenEncryptionKey)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20007, "failed to encrypt token")
		return
	}

	res := h.DB.Model(&models.User{}).Where("id = ?", id).
		Update("hubspot_token", encrypted)
	if res.Error != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	if res.RowsAffected == 0 {
		common.Fail(c, http.StatusNotFound, 40401, "user not found")
		return
	}

	h.Tokens.Invalidate(c.Request.Context(), id)
	common.OK(c, gin.H{"rotated": true})
}

// DeactivateUser flips the active flag; users are never hard-deleted.
// Idempotent: deactivating an already inactive user succeeds. Existence is a
// read, not a RowsAffected check, which mysql reports as zero on no-op updates.
func (h *Handler) DeactivateUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid user id")
		return
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	if err := h.DB.Model(&user).Update("active", false).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{"active": false})
}

func (h *Handler) GetUserByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid user id")
		return
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, user)
}
