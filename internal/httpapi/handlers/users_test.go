package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/config"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(db, config.Config{
		JWTSecret:          "test-secret",
		TokenEncryptionKey: "0123456789abcdef0123456789abcdef",
	}, nil, nil)

	r := gin.New()
	r.POST("/users/:id/deactivate", h.DeactivateUser)
	return r
}

func TestDeactivateUser_IsIdempotent(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(t, db)

	u := &models.User{
		PhoneNumber:  "+990000000100",
		Username:     "deactivate-me",
		PasswordHash: "x",
		Active:       true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	// deactivating twice must succeed both times; the second call is a no-op
	// update, which mysql reports as zero affected rows
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/users/%d/deactivate", u.ID), nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("call %d: expected 200, got %d (%s)", i, w.Code, w.Body.String())
		}
	}

	var stored models.User
	if err := db.First(&stored, u.ID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.Active {
		t.Fatalf("expected user deactivated")
	}
}

func TestDeactivateUser_UnknownUser(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(t, db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/users/424242/deactivate", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
