package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/kanjibot/internal/bot"
	"github.com/example/kanjibot/internal/config"
	"github.com/example/kanjibot/internal/database"
	"github.com/example/kanjibot/internal/excel"
	"github.com/example/kanjibot/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Channel for OS signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbConfig := database.Config{Driver: cfg.DBType, DSN: cfg.SQLitePath}
	if cfg.DBType == database.DriverPostgres {
		dbConfig.DSN = cfg.DatabaseURL
	}
	db, err := database.Open(dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.ImportFile != "" {
		importConfig := excel.DefaultImportConfig()
		importConfig.FilePath = cfg.ImportFile
		result, err := excel.ImportItems(ctx, importConfig, database.NewItemRepository(db))
		if err != nil {
			log.Fatalf("Failed to import %s: %v", cfg.ImportFile, err)
		}
		log.Printf("Imported %s: %d processed, %d created, %d updated, %d skipped",
			cfg.ImportFile, result.TotalProcessed, result.Created, result.Updated, result.Skipped)
		for _, e := range result.Errors {
			log.Printf("Import warning: %s", e)
		}
	}

	botConfig := bot.DefaultConfig()
	botConfig.DefaultReviewsPerSession = cfg.ReviewsPerSession
	botConfig.UndoDepth = cfg.UndoDepth
	botConfig.AdminUserIDs = cfg.AdminUserIDs
	botConfig.Location = cfg.Location

	b, err := bot.NewBot(cfg.TelegramToken, db, botConfig)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	var sched *scheduler.Scheduler
	if cfg.EnableScheduler {
		sched = scheduler.New(b, database.NewUserRepository(db), database.NewDueCounter(db), scheduler.Config{
			StartHour: cfg.NotificationStartHour,
			EndHour:   cfg.NotificationEndHour,
			Location:  cfg.Location,
		})
		if err := sched.Start(); err != nil {
			log.Fatalf("Failed to start reminder scheduler: %v", err)
		}
		log.Println("Reminder scheduler started")
	}

	// Channel to wait for the bot to finish
	done := make(chan struct{})

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v\n", sig)
		cancel()

		if sched != nil {
			sched.Stop()
		}
		b.Stop()

		// Give in-flight updates time to finish
		time.Sleep(time.Second)
		close(done)
	}()

	log.Println("Bot started. Press Ctrl+C to stop.")
	go func() {
		if err := b.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Bot error: %v", err)
		}
	}()

	<-done
	log.Println("Bot stopped successfully")
}
