package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/Tfeater/TfeaterMathLab/api/internal/config"
	"github.com/Tfeater/TfeaterMathLab/api/internal/explain"
	"github.com/Tfeater/TfeaterMathLab/api/internal/handle"
	"github.com/Tfeater/TfeaterMathLab/api/internal/llm"
	"github.com/Tfeater/TfeaterMathLab/api/internal/store"
	"github.com/Tfeater/TfeaterMathLab/api/internal/textsolve"
)

func main() {
	cfg := config.Load()

	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		cfg.Port = p
	} else if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8000"
	}

	var repo *store.CalculationRepo
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("sql.Open: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("db.Ping: %v", err)
		}
		cancel()
		log.Printf("db connected")
		repo = store.NewCalculationRepo(db)
	} else {
		log.Printf("DATABASE_URL not set; history disabled")
	}

	gemini := llm.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	h := handle.New(
		explain.New(gemini, cfg.AITimeout),
		textsolve.New(gemini, cfg.AITimeout),
		repo,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/solve", h.Solve)
	mux.HandleFunc("/api/solve-text", h.SolveText)

	addr := ":" + cfg.Port
	log.Printf("mathlab listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}
