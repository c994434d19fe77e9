package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mentorio/pkg/agent"
	"mentorio/pkg/coach"
	"mentorio/pkg/config"
	"mentorio/pkg/guardrails"
	"mentorio/pkg/llm"
	_ "mentorio/pkg/llm/autoload" // 自動註冊 LLM Providers
	"mentorio/pkg/monitor"
	"mentorio/pkg/server"
	"mentorio/pkg/store"

	"github.com/joho/godotenv"
)

func main() {
	// 啟動監控環境
	monitor.Startup()

	log.Println("==========================================")

	// --- 0. 讀取設定檔 ---
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	cfg, sysCfg, err := config.Load("config.json")
	if err != nil {
		log.Fatalf("Failed to load config.json: %v\n", err)
	}
	monitor.SetupSlog(sysCfg.LogLevel)

	secrets, err := config.LoadSecrets(cfg)
	if err != nil {
		log.Fatalf("Failed to load secrets: %v\n", err)
	}

	// --- 1. 資料庫 ---
	st, err := store.New(secrets.SupabaseURL, secrets.SupabaseKey)
	if err != nil {
		log.Fatalf("Failed to init store: %v\n", err)
	}

	// --- 2. LLM 設定 ---
	coachClient, err := llm.NewFromConfig(cfg.LLM, sysCfg)
	if err != nil {
		log.Fatalf("Failed to init coach LLM client: %v\n", err)
	}

	// Utility model 用於 sub-agents 和 guardrails，未設定時回退到主模型
	utilityClient := coachClient
	if len(cfg.UtilityLLM) > 0 {
		if c, err := llm.NewFromConfig(cfg.UtilityLLM, sysCfg); err != nil {
			log.Printf("Failed to init utility LLM client, falling back to coach model: %v\n", err)
		} else {
			utilityClient = c
		}
	}

	coachRunner := agent.NewRunner(coachClient, sysCfg)
	utilityRunner := agent.NewRunner(utilityClient, sysCfg)

	// --- 3. Coach 組裝 ---
	var guard *guardrails.Guard
	if sysCfg.EnableGuardrails {
		guard = guardrails.New(utilityRunner)
	}

	loader := &coach.Loader{Store: st, DefaultMentorName: cfg.DefaultMentorName}
	coachAgent := coach.BuildCoach(st, utilityRunner, sysCfg)
	svc := coach.NewService(loader, coachRunner, guard, coachAgent, sysCfg)

	// --- 4. HTTP 服務 ---
	srv := server.New(cfg.Server, server.NewHandler(svc, st))
	errCh := srv.Start()

	// 監聽系統信號
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed: %v\n", err)
	case <-sigChan:
	}

	log.Println("\nReceived shutdown signal. Stopping services...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v\n", err)
	}
	log.Println("Bye!")
}
