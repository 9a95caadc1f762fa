package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/openllm/llamagate/internal/clients"
	"github.com/openllm/llamagate/internal/config"
	"github.com/openllm/llamagate/internal/engine"
	"github.com/openllm/llamagate/internal/logger"
	"github.com/openllm/llamagate/internal/server"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger.InitLogger(logger.ParseLevel(cfg.LogLevel), "llamagate")

	client, err := newCompletionClient(cfg)
	if err != nil {
		log.Fatal(err)
	}

	eng, err := engine.New(client, cfg.Model.Name, cfg.Model.PromptFormat)
	if err != nil {
		log.Fatal(err)
	}

	if err := server.New(eng, cfg).Run(); err != nil {
		log.Fatal(err)
	}
}

func newCompletionClient(cfg *config.Config) (clients.CompletionClient, error) {
	clientCfg := clients.CompletionClientConfig{
		APIBase:       cfg.Engine.APIBase,
		Model:         cfg.Model.Name,
		DefaultParams: cfg.Engine.DefaultParams,
	}
	switch cfg.Engine.Kind {
	case config.EngineKindOpenAI:
		return clients.NewOpenAIClient(clientCfg), nil
	case config.EngineKindLlamaCpp:
		return clients.NewLlamaCppClient(clientCfg), nil
	}
	return nil, fmt.Errorf("unknown engine kind %q", cfg.Engine.Kind)
}
