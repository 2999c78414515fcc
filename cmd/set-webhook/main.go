package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jraftery/expense-ledger/internal/config"
	"github.com/jraftery/expense-ledger/internal/telegram"
	"go.uber.org/zap"
)

// Registers the bot's webhook with the Telegram API so chat updates
// reach the running server. Run once after deploying to a new base URL.
func main() {
	baseURL := flag.String("base-url", "", "Public base URL of the deployed server (e.g. https://expenses.example.com)")
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	if *baseURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: set-webhook --base-url https://expenses.example.com [--config <path>]\n")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	client, err := telegram.NewClient(telegram.Config{
		BotToken:   cfg.Telegram.BotToken,
		APITimeout: cfg.Telegram.APITimeout,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create telegram client: %v\n", err)
		os.Exit(1)
	}

	url := strings.TrimRight(*baseURL, "/") + cfg.Telegram.WebhookPath
	if err := client.RegisterWebhook(url); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register webhook: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Webhook registered: %s\n", url)
}
