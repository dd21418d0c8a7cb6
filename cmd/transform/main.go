package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"sheetforge/internal/llm"
	"sheetforge/internal/llmclient"
	"sheetforge/internal/pipeline"
	"sheetforge/internal/prompt"
	"sheetforge/internal/workdir"
)

func main() {
	dir := flag.String("dir", "", "directory holding the source documents")
	request := flag.String("request", "", "what the spreadsheet should contain")
	out := flag.String("out", "", "output directory (default: the source directory)")
	model := flag.String("model", "gemini-2.0-flash", "Gemini model id")
	timeout := flag.Duration("stage-timeout", 4*time.Minute, "per-stage timeout")
	offline := flag.Bool("offline", false, "use the deterministic offline client")
	flag.Parse()
	if *dir == "" {
		log.Fatal("--dir is required")
	}
	if *request == "" {
		log.Fatal("--request is required")
	}

	_ = godotenv.Load()

	ctx := context.Background()
	var base llmclient.LLMClient
	if *offline {
		base = llm.NewFakeClient()
	} else {
		if os.Getenv("GEMINI_API_KEY") == "" {
			log.Fatal("GEMINI_API_KEY is not set (or pass --offline)")
		}
		cli, err := llmclient.NewGeminiClient(ctx, *model)
		if err != nil {
			log.Fatal(err)
		}
		base = cli
	}
	client := llm.Wrap(base,
		llm.WithLogging(log.Default()),
		llm.WithUsageLedger("llm_usage.json"),
		llm.Retry(3, 2*time.Second),
		llm.RateLimit(1, 2),
	)
	defer client.Close()

	prompts, err := prompt.NewDefault()
	if err != nil {
		log.Fatal(err)
	}
	wd, err := workdir.Attach(*dir)
	if err != nil {
		log.Fatal(err)
	}

	opts := []pipeline.Option{pipeline.WithStageTimeout(*timeout)}
	if *out != "" {
		if err := os.MkdirAll(*out, 0o755); err != nil {
			log.Fatal(err)
		}
		opts = append(opts, pipeline.WithOutputDir(*out))
	}
	orch := pipeline.New(client, prompts, wd.FS(), opts...)

	res, err := orch.Run(ctx, *request, nil)
	if err != nil {
		log.Fatalf("transform failed: %v", err)
	}
	for _, w := range res.Warnings {
		log.Printf("warning: %s", w)
	}
	fmt.Println(res.WorkbookPath)
}
