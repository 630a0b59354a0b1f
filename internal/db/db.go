package db

import (
	"log"

	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/audit"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/chat"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return gdb
}

func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&chat.Session{},
		&chat.Message{},
		&audit.Log{},
	)
}
