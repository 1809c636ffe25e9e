package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/boardpilot/boardpilot/agent"
	"github.com/boardpilot/boardpilot/auth"
	"github.com/boardpilot/boardpilot/config"
	"github.com/boardpilot/boardpilot/console"
	"github.com/boardpilot/boardpilot/eventing"
	"github.com/boardpilot/boardpilot/llm"
	"github.com/boardpilot/boardpilot/tools"
	"github.com/boardpilot/boardpilot/webhook"
)

func main() {
	localFlag := flag.Bool("local", false, "Run an interactive console session instead of the webhook server")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	client, err := newLLMClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing LLM client: %+v\n", err)
		os.Exit(1)
	}

	executor := agent.NewExecutor(tools.NewRegistry(cfg))

	if *localFlag {
		initialPrompt := strings.Join(flag.Args(), " ")
		fmt.Println("Boardpilot console is ready. Type your prompt.")
		c := console.New(client, executor, cfg, logger, os.Stdin, os.Stdout)
		if err := c.Run(context.Background(), initialPrompt); err != nil {
			fmt.Fprintf(os.Stderr, "Console stopped with an error: %+v\n", err)
			os.Exit(1)
		}
		return
	}

	secret := os.Getenv(cfg.Webhook.SecretEnv)
	if secret == "" {
		fmt.Fprintf(os.Stderr, "Webhook secret environment variable %s is not set\n", cfg.Webhook.SecretEnv)
		os.Exit(1)
	}

	srv, err := webhook.NewServer(cfg, logger, client, executor, auth.NewFileStore(cfg), eventing.NewBus(), []byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing webhook server: %+v\n", err)
		os.Exit(1)
	}
	if err := srv.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Webhook server stopped: %+v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func newLLMClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.LLMClient {
	case "gemini":
		return llm.NewGeminiClient(context.Background(), cfg.Model)
	case "openai":
		return llm.NewOpenAIClient(context.Background(), cfg.Model)
	case "bedrock":
		return llm.NewBedrockClient(context.Background(), cfg.Model)
	case "anthropic":
		return llm.NewAnthropicClient(context.Background(), cfg.Model)
	default:
		return &llm.ScriptedClient{}, nil
	}
}
