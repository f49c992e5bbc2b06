package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/wordbank/internal/bot"
	"github.com/example/wordbank/internal/config"
	"github.com/example/wordbank/internal/database"
	"github.com/example/wordbank/internal/dictionary"
	"github.com/example/wordbank/internal/excel"
	"github.com/example/wordbank/internal/review"
	"github.com/example/wordbank/internal/scheduler"
	"github.com/example/wordbank/internal/spaced_repetition"
	"github.com/example/wordbank/internal/wordbank"
)

func main() {
	importPath := flag.String("import", "", "import words from an .xlsx, .csv or .json file and exit")
	exportPath := flag.String("export", "", "export the word bank to an .xlsx, .csv or .json file and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Подключаемся к базе данных
	dsn := cfg.DBPath
	if cfg.DBType == database.TypePostgres {
		dsn = cfg.DatabaseURL
	}
	db, err := database.Connect(cfg.DBType, dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := database.NewWordRepository(db)

	// Создаем контекст с отменой по сигналу
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *importPath != "" || *exportPath != "" {
		if err := runOnce(ctx, repo, *importPath, *exportPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	sm2 := spaced_repetition.NewSM2()
	sm2.MaxInterval = cfg.MaxIntervalDays

	words := wordbank.NewService(repo, dictionary.New(cfg.DictionaryURL), time.Now)
	reviews := review.NewService(repo, review.Options{
		SM2:                sm2,
		NewWordsPerSession: cfg.NewWordsPerSession,
		SessionSize:        cfg.ReviewSessionSize,
	})

	api, err := bot.NewAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	if len(cfg.OwnerChatIDs) == 0 {
		log.Println("Warning: OWNER_CHAT_IDS is empty, every message will be ignored")
	}
	b := bot.New(api, words, reviews, bot.Config{
		OwnerChatIDs: cfg.OwnerChatIDs,
		QuizSize:     cfg.QuizSize,
	})

	if cfg.SchedulerEnabled {
		s := scheduler.New(repo, b, scheduler.Options{
			Interval:  cfg.ReminderInterval,
			StartHour: cfg.NotificationStartHour,
			EndHour:   cfg.NotificationEndHour,
		})
		if err := s.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer s.Stop()
		log.Println("Reminder scheduler started successfully")
	}

	log.Println("Bot started. Press Ctrl+C to stop.")
	b.Run(ctx, api)
	log.Println("Bot stopped successfully")
}

// runOnce performs a command line import or export
func runOnce(ctx context.Context, repo *database.WordRepository, importPath, exportPath string) error {
	if importPath != "" {
		result, err := excel.NewImporter(repo, excel.DefaultImportConfig(), time.Now).ImportFile(ctx, importPath)
		if err != nil {
			return err
		}
		log.Printf("Imported %s: %d processed, %d created, %d skipped",
			importPath, result.TotalProcessed, result.Created, result.Skipped)
		for _, e := range result.Errors {
			log.Printf("  %s", e)
		}
	}

	if exportPath != "" {
		words, err := repo.GetAll(ctx)
		if err != nil {
			return err
		}
		if err := excel.ExportFile(exportPath, words); err != nil {
			return err
		}
		log.Printf("Exported %d words to %s", len(words), exportPath)
	}
	return nil
}
