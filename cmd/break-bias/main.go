package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/dyk-im/Break-Bias/internal/cache"
	"github.com/dyk-im/Break-Bias/internal/chunker"
	"github.com/dyk-im/Break-Bias/internal/config"
	"github.com/dyk-im/Break-Bias/internal/domain"
	"github.com/dyk-im/Break-Bias/internal/embedding"
	openaiembed "github.com/dyk-im/Break-Bias/internal/embedding/openai"
	"github.com/dyk-im/Break-Bias/internal/generation"
	"github.com/dyk-im/Break-Bias/internal/logging"
	"github.com/dyk-im/Break-Bias/internal/processor"
	"github.com/dyk-im/Break-Bias/internal/retrieval"
	"github.com/dyk-im/Break-Bias/internal/sentiment"
	"github.com/dyk-im/Break-Bias/internal/service"
	"github.com/dyk-im/Break-Bias/internal/tui"
	"github.com/dyk-im/Break-Bias/internal/vectorstore"
	"github.com/dyk-im/Break-Bias/internal/vectorstore/memory"
	"github.com/dyk-im/Break-Bias/internal/vectorstore/qdrant"
	"github.com/dyk-im/Break-Bias/internal/youtube"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config YAML (default: ./config.yaml, then ~/.config/break-bias/config.yaml)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	_ = godotenv.Load()

	var cfg *config.AppConfig
	var err error
	if *cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	args := flag.Args()
	interactive := len(args) == 0
	if interactive {
		// The TUI owns stdout; keep logs off the screen it draws on.
		logging.Init(os.Stderr, *debug)
	} else {
		logging.Init(os.Stdout, *debug)
	}

	svc, err := assemble(cfg)
	if err != nil {
		log.Fatalf("failed to assemble service: %v", err)
	}

	if interactive {
		m := tui.New(svc, tui.Options{
			MaxVideos:           cfg.Analysis.MaxVideos,
			MaxCommentsPerVideo: cfg.Analysis.MaxCommentsPerVideo,
			TopK:                cfg.Analysis.TopK,
		})
		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := runCommand(context.Background(), svc, cfg, args); err != nil {
		log.Fatal(err)
	}
}

// assemble wires the configured implementations behind the service ports.
func assemble(cfg *config.AppConfig) (*service.OpinionAnalysisService, error) {
	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "openai", "":
		client, err := openaiembed.NewClient(openaiembed.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("embedder: %w", err)
		}
		emb = client
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var store vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "memory", "":
		store = memory.NewStorage()
	case "qdrant":
		store = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	gen, err := generation.NewClient(generation.Config{
		BaseURL:     cfg.Generator.BaseURL,
		APIKeyEnv:   cfg.Generator.APIKeyEnv,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
		MaxTokens:   cfg.Generator.MaxTokens,
		Timeout:     time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}

	var classifier domain.SentimentClassifier
	switch cfg.Sentiment.Type {
	case "vader", "":
		classifier = sentiment.NewVADERClassifier()
	case "llm":
		classifier = sentiment.NewLLMClassifier(gen)
	default:
		return nil, fmt.Errorf("unknown sentiment classifier: %s", cfg.Sentiment.Type)
	}

	var processed processor.ProcessedCache
	switch cfg.Cache.Type {
	case "memory", "":
		processed = cache.NewMemoryCache()
	case "valkey":
		vc, err := cache.NewValkeyCache(cache.ValkeyConfig{
			Address:  cfg.Cache.Address,
			Password: cfg.Cache.Password,
			UseTLS:   cfg.Cache.UseTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("valkey cache: %w", err)
		}
		processed = vc
	case "none":
		processed = nil
	default:
		return nil, fmt.Errorf("unknown cache: %s", cfg.Cache.Type)
	}

	source := youtube.NewClient(youtube.Config{
		BaseURL: cfg.YouTube.BaseURL,
		APIKey:  os.Getenv(cfg.YouTube.APIKeyEnv),
		Timeout: time.Duration(cfg.YouTube.TimeoutSecs) * time.Second,
	})

	ch := chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	proc := processor.NewCommentProcessor(source, classifier, emb, store, ch, processed)
	retriever := retrieval.NewRetriever(emb, store)

	return service.NewOpinionAnalysisService(retriever, proc, gen, emb, store,
		cfg.Analysis.RepresentativeCount, cfg.Analysis.KeywordCount), nil
}

func runCommand(ctx context.Context, svc *service.OpinionAnalysisService, cfg *config.AppConfig, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "collect":
		if len(rest) == 0 {
			return fmt.Errorf("usage: break-bias collect <topic>")
		}
		topic := strings.Join(rest, " ")
		sum, err := svc.CollectAndAnalyzeTopic(ctx, topic, cfg.Analysis.MaxVideos, cfg.Analysis.MaxCommentsPerVideo)
		if err != nil {
			return err
		}
		return printJSON(sum)
	case "collect-video":
		if len(rest) != 1 {
			return fmt.Errorf("usage: break-bias collect-video <video-id>")
		}
		sum, err := svc.CollectVideoComments(ctx, rest[0], cfg.Analysis.MaxCommentsPerVideo)
		if err != nil {
			return err
		}
		return printJSON(sum)
	case "analyze":
		if len(rest) < 2 {
			return fmt.Errorf("usage: break-bias analyze <topic> <query...>")
		}
		topic, query := rest[0], strings.Join(rest[1:], " ")
		res, err := svc.AnalyzeOpinion(ctx, query, topic, cfg.Analysis.TopK, true)
		if err != nil {
			return err
		}
		return printJSON(res)
	case "overview":
		if len(rest) == 0 {
			return fmt.Errorf("usage: break-bias overview <topic>")
		}
		ov, err := svc.GetTopicOverview(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		return printJSON(ov)
	case "clear":
		if len(rest) == 0 {
			return fmt.Errorf("usage: break-bias clear <topic>")
		}
		return svc.ClearTopicData(ctx, strings.Join(rest, " "))
	case "stats":
		stats, err := svc.GetSystemStats(ctx)
		if err != nil {
			return err
		}
		return printJSON(stats)
	default:
		return fmt.Errorf("unknown command %q (collect, collect-video, analyze, overview, clear, stats)", cmd)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
