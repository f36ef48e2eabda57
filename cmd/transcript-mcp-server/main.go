package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/transcript-mcp/internal/config"
	"github.com/Epistemic-Technology/transcript-mcp/internal/logger"
	"github.com/Epistemic-Technology/transcript-mcp/server"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	// Initialize logger with default configuration
	log, err := logger.NewLogger(logger.LogConfig{})
	if err != nil {
		panic(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	log.Info("Starting transcript-mcp server (model %s, %d tokens per chunk)", cfg.Model, cfg.ChunkTokens)

	srv := server.CreateServer(cfg, log)
	err = srv.Run(context.Background(), &mcp.StdioTransport{})
	if err != nil {
		log.Fatal("Server failed: %v", err)
	}
}
