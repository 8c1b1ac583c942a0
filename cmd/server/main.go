package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env file loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/online-exam-platform/internal/config"     // Internal config loader
	"github.com/iliyamo/online-exam-platform/internal/crypto"     // Question payload codec
	"github.com/iliyamo/online-exam-platform/internal/database"   // MySQL connection
	"github.com/iliyamo/online-exam-platform/internal/handler"    // HTTP handlers
	"github.com/iliyamo/online-exam-platform/internal/queue"      // Audit event consumer
	"github.com/iliyamo/online-exam-platform/internal/repository" // Persisted stores
	"github.com/iliyamo/online-exam-platform/internal/router"     // Internal router setup
	"github.com/iliyamo/online-exam-platform/internal/scoring"    // Answer grading engine
	"github.com/iliyamo/online-exam-platform/internal/service"    // Token lifecycle service
)

func main() {
	_ = godotenv.Load() // Load .env if present; real env vars win
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	// Redis carries the revoked access token set.  Verification fails closed
	// on it, so the server refuses to start without it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis connect failed: revocation set unavailable")
	}

	codec := crypto.NewCodec(cfg.AESSecret) // Question payload codec

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	exams := repository.NewExamRepo(db)
	results := repository.NewResultRepo(db)
	audits := repository.NewAuditLogRepo(db)
	revoked := repository.NewRevocationStore(rdb)

	tokenSvc := service.NewTokenService(cfg, tokens, revoked)
	engine := scoring.NewEngine(codec)

	// The audit consumer drains audit.events into the audit_logs table in
	// the background, reconnecting on broker failures.
	go func() {
		if err := queue.StartAuditConsumer(audits); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokenSvc), tokenSvc)
	router.RegisterExams(e, handler.NewExamHandler(codec, exams), tokenSvc)
	router.RegisterResults(e, handler.NewResultHandler(engine, exams, results), tokenSvc)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
