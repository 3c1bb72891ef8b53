package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"docchat/internal/answer"
	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/document"
	"docchat/internal/domain"
	"docchat/internal/embedding"
	geminiembed "docchat/internal/embedding/gemini"
	openaiembed "docchat/internal/embedding/openai"
	"docchat/internal/embedding/tfidf"
	geminillm "docchat/internal/llm/gemini"
	openaillm "docchat/internal/llm/openai"
	"docchat/internal/service"
)

type dependencies struct {
	pipeline      *service.Pipeline
	embedderName  string
	generatorName string
	closers       []func() error
}

func (d *dependencies) Close() {
	for _, c := range d.closers {
		_ = c()
	}
}

func build(ctx context.Context, cfg *config.AppConfig, l *zap.Logger) (*dependencies, error) {
	deps := &dependencies{}
	clients := map[string]*genai.Client{}
	geminiClient := func(c *config.GeminiConfig) (*genai.Client, error) {
		if client, ok := clients[c.APIKeyEnv]; ok {
			return client, nil
		}
		key, err := requireEnv(c.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		client, err := genai.NewClient(ctx, option.WithAPIKey(key))
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		clients[c.APIKeyEnv] = client
		deps.closers = append(deps.closers, client.Close)
		return client, nil
	}

	var backend domain.Embedder
	switch cfg.Embedder.Type {
	case "tfidf":
		backend = tfidf.NewEmbedder()
	case "gemini":
		client, err := geminiClient(cfg.Embedder.Gemini)
		if err != nil {
			deps.Close()
			return nil, err
		}
		backend = geminiembed.NewEmbedder(client, cfg.Embedder.Gemini.Model)
	case "openai":
		oc := cfg.Embedder.OpenAI
		key, err := requireEnv(oc.APIKeyEnv)
		if err != nil {
			deps.Close()
			return nil, err
		}
		backend = openaiembed.NewEmbedder(openaiembed.Config{
			APIKey:     key,
			BaseURL:    oc.BaseURL,
			Model:      oc.Model,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
			MaxRetries: oc.MaxRetries,
			Logger:     l,
		})
	default:
		deps.Close()
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
	deps.embedderName = backend.Name()

	var generator domain.Generator
	switch cfg.Generator.Type {
	case "gemini":
		client, err := geminiClient(cfg.Generator.Gemini)
		if err != nil {
			deps.Close()
			return nil, err
		}
		generator = geminillm.NewGenerator(client, cfg.Generator.Gemini.Model)
	case "openai":
		oc := cfg.Generator.OpenAI
		key, err := requireEnv(oc.APIKeyEnv)
		if err != nil {
			deps.Close()
			return nil, err
		}
		generator = openaillm.NewGenerator(openaillm.Config{
			APIKey:  key,
			BaseURL: oc.BaseURL,
			Model:   oc.Model,
			Timeout: time.Duration(oc.TimeoutSecs) * time.Second,
		})
	default:
		deps.Close()
		return nil, fmt.Errorf("unknown generator: %s", cfg.Generator.Type)
	}
	deps.generatorName = generator.Name()

	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "paragraph":
		ch = chunker.NewParagraphChunker(cfg.Chunker.MinLength)
	case "sentence":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences, cfg.Chunker.MinLength)
	default:
		deps.Close()
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Chunker.Type)
	}

	var rasterizer document.Rasterizer
	if cfg.Ingestion.RenderPages {
		rasterizer = document.NewFitzRasterizer(cfg.Ingestion.RenderScale, cfg.Ingestion.JPEGQuality)
	}

	embedder := embedding.NewClient(embedding.NewInstrumented(backend, l), cfg.Embedder.Concurrency, l)
	synth := answer.New(generator, domain.GenerationOptions{
		Temperature: cfg.Generator.Temperature,
		TopP:        cfg.Generator.TopP,
	}, l)
	sampling := synth.Options()
	l.Info("Generator configured",
		zap.String("generator", generator.Name()),
		zap.Float32("temperature", sampling.Temperature),
		zap.Float32("top_p", sampling.TopP),
	)
	deps.pipeline = service.NewPipeline(
		ch,
		embedder,
		document.NewExtractor(rasterizer, l),
		synth,
		service.Options{
			Timeout:          cfg.Ingestion.Timeout(),
			TopK:             cfg.Retrieval.TopK,
			SummarySentences: cfg.Ingestion.SummarySentences,
		},
		l,
	)
	return deps, nil
}

func requireEnv(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("environment variable %s is not set", name)
	}
	return v, nil
}
