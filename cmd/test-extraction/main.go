package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/jraftery/expense-ledger/internal/extract"
	"go.uber.org/zap"
)

// One-shot extraction harness: runs a single document through the
// vision model and prints the structured result. Useful for tuning the
// prompt without standing up the full server.
func main() {
	apiKey := flag.String("key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	model := flag.String("model", "gpt-4o", "Vision model to use")
	timeout := flag.Duration("timeout", 60*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: test-extraction [--key sk-...] [--model gpt-4o] <receipt.jpg|receipt.pdf>\n")
		os.Exit(1)
	}
	path := flag.Arg(0)

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "ERROR: OPENAI_API_KEY not set and no --key flag provided\n")
		os.Exit(1)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
		os.Exit(1)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	client := extract.NewClient(extract.Config{
		APIKey:    *apiKey,
		Model:     *model,
		MaxTokens: 1024,
		Timeout:   *timeout,
	}, logger)

	fmt.Printf("Extracting %s (%s, %d bytes)...\n", path, mimeType, len(data))

	start := time.Now()
	result, err := client.Extract(context.Background(), data, mimeType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Printf("Result (%.1fs):\n%s\n", time.Since(start).Seconds(), out)
}
