package main

import (
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	cfg := LoadConfig()

	// 1) DB
	db, err := OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// 2) Seed (if empty)
	if isEmpty, _ := IsQuestionTableEmpty(db); isEmpty {
		path := filepath.Join(cfg.SeedDir, "questions.json")
		if _, err := os.Stat(path); err == nil {
			if err := SeedFromJSON(db, path, filepath.Join(cfg.SeedDir, "answers.json")); err != nil {
				log.Fatalf("seed: %v", err)
			}
			log.Printf("Seeded questions from %s", path)
		} else {
			log.Printf("No seed file at %s; running with empty bank", path)
		}
	}

	// 3) Bank is read once and never written
	bank, err := LoadBank(db)
	if err != nil {
		log.Fatalf("load bank: %v", err)
	}
	log.Printf("Loaded %d questions (%d exams)", len(bank.Questions()), len(bank.Exams()))

	reg, err := NewRegistry(bank, func(ns string) KV { return NewDBKV(db, ns) }, cfg.ViewerCacheSize)
	if err != nil {
		log.Fatalf("registry: %v", err)
	}

	// 4) Router
	r, err := newRouter(cfg, db, reg)
	if err != nil {
		log.Fatalf("router: %v", err)
	}

	log.Printf("Listening on :%s (SecureCookies=%v, DB=%s)", cfg.Port, cfg.SecureCookies, cfg.DBDriver)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run: %v", err)
	}
}

func newRouter(cfg Config, db *gorm.DB, reg *Registry) (*gin.Engine, error) {
	r := gin.Default()

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	// --- CORS: configured origins + any localhost:port ---
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if slices.Contains(cfg.AllowedOrigins, origin) {
				return true
			}
			// allow any http://localhost:PORT during development
			return strings.HasPrefix(origin, "http://localhost:")
		},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })
	r.GET("/sw.js", ServiceWorker())

	// everything below is scoped to the browser identity
	app := r.Group("/", EnsureUser(db, cfg.SecureCookies))

	// --- HTML viewer ---
	app.GET("/", Index(reg))
	ui := app.Group("/ui")
	{
		ui.POST("/questions/:id/toggle", UIToggle(reg))
		ui.POST("/questions/:id/select", UISelect(reg))
		ui.POST("/questions/:id/flags", UIFlag(reg))
		ui.POST("/missed/pick", UIPickMissed(reg))
		ui.POST("/reset", UIResetPrompt(reg))
		ui.POST("/reset/confirm", UIResetConfirm(reg))
	}

	// --- API routes ---
	api := app.Group("/api/v1")
	{
		api.GET("/filters", ListFilters(reg.Bank()))
		api.GET("/questions", ListQuestions(reg))
		api.GET("/questions/:id", GetQuestion(reg))
		api.POST("/questions/:id/toggle", ToggleAnswer(reg))
		api.POST("/questions/:id/select", SelectChoice(reg))
		api.POST("/questions/:id/flags", SetFlag(reg))
		api.POST("/missed/pick", PickMissed(reg))
		api.GET("/stats", GetStats(reg))

		api.POST("/reset", RequestReset(reg))
		api.POST("/reset/confirm", ConfirmReset(reg))

		api.GET("/me/export-key", ExportKey())
		api.POST("/me/restore", RestoreAccount(db, cfg.SecureCookies))
	}

	return r, nil
}
