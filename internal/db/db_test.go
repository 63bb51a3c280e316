package db

import (
	"strings"
	"testing"

	"github.com/Nolger/chatbot/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "chatbot",
		Password: "secret",
		Name:     "chatbot_prod",
		SSLMode:  "require",
	})
	want := "host=db.internal port=5433 user=chatbot password=secret dbname=chatbot_prod sslmode=require"
	if dsn != want {
		t.Errorf("DSN = %q, want %q", dsn, want)
	}
}

func TestConnect_BadHost(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{
		Host: "256.0.0.1", Port: 1, User: "x", Name: "x", SSLMode: "disable",
	})
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !strings.Contains(err.Error(), "db: connect") {
		t.Errorf("error = %q, want db: connect prefix", err.Error())
	}
}

func TestAutoMigrate(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	for _, table := range []string{"chats", "messages", "orders", "agents"} {
		if !gdb.Migrator().HasTable(table) {
			t.Errorf("table %q not created", table)
		}
	}
}

func TestAllModels_Count(t *testing.T) {
	if got := len(AllModels()); got != 4 {
		t.Errorf("len(AllModels()) = %d, want 4", got)
	}
}
