package main

import (
	"context"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/massoterapia/backend/internal/config"
	"github.com/massoterapia/backend/internal/migrate"
	"github.com/massoterapia/backend/internal/reminder"
)

// Job de disparo único: envia os lembretes WhatsApp das consultas de amanhã.
// Roda por cron (um processo por execução).
func main() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	ctx := context.Background()
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("db.DB: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()
	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatalf("ping: %v", err)
	}
	if err := migrate.Run(ctx, db, "migrations"); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	loc, err := time.LoadLocation(cfg.AgendaTimezone)
	if err != nil {
		log.Printf("AGENDA_TIMEZONE=%s invalid, using UTC: %v", cfg.AgendaTimezone, err)
		loc = time.UTC
	}
	now := time.Now().In(loc)
	amanha := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	sender := reminder.DefaultWhatsAppSender(cfg.TwilioAccountSid, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)
	sent, skipped := reminder.SendLembretes(ctx, db, amanha, sender)
	log.Printf("[reminder] done: sent=%d skipped=%d date=%s", sent, skipped, amanha.Format("2006-01-02"))
	os.Exit(0)
}
