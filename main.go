package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"review_analyzer/analyzer"
	"review_analyzer/config"
	"review_analyzer/logger"
	"review_analyzer/review"
	"review_analyzer/server"
)

var (
	configPath string
	cfg        config.Config
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "review-analyzer",
		Short:         "LLM-backed product review sentiment and aspect analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(configPath); err != nil {
				return err
			}
			return logger.Init(cfg.Log.Level, cfg.Log.File)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (defaults and environment when empty)")
	root.AddCommand(serveCmd(), analyzeCmd(), suggestCmd())
	return root
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the review HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			an, err := buildAnalyzer(cfg)
			if err != nil {
				return err
			}
			store, err := buildStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			svc, err := review.NewService(store, an, logger.Log)
			if err != nil {
				return err
			}
			srv, err := server.New(svc, an, logger.Log)
			if err != nil {
				return err
			}

			listen := cfg.ServerAddr
			if addr != "" {
				listen = addr
			}
			return listenAndServe(cmd.Context(), listen, srv.Routes())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "http listen address (overrides config server_addr)")
	return cmd
}

func analyzeCmd() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "analyze [review text]",
		Short: "Analyze one review and print the JSON result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" {
				text = strings.Join(args, " ")
			}
			an, err := buildAnalyzer(cfg)
			if err != nil {
				return err
			}
			res, err := an.Analyze(cmd.Context(), text)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "review text (alternative to positional args)")
	return cmd
}

func suggestCmd() *cobra.Command {
	var positive, negative []string
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Generate improvement suggestions from positive and negative aspects",
		RunE: func(cmd *cobra.Command, args []string) error {
			an, err := buildAnalyzer(cfg)
			if err != nil {
				return err
			}
			suggestions, err := an.Suggest(cmd.Context(), analyzer.AspectBag{Positive: positive, Negative: negative})
			if err != nil {
				return err
			}
			for _, s := range suggestions {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&positive, "positive", nil, "comma-separated praised aspects")
	cmd.Flags().StringSliceVar(&negative, "negative", nil, "comma-separated criticised aspects")
	return cmd
}

func buildAnalyzer(cfg config.Config) (*analyzer.Analyzer, error) {
	llm, err := buildLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}
	if cfg.LLM.RPM > 0 {
		burst := cfg.LLM.Burst
		if burst == 0 {
			burst = 1
		}
		limit := rate.Limit(float64(cfg.LLM.RPM) / 60.0)
		logger.Log.Infof("llm rate limit: %.2f req/s, burst %d", float64(limit), burst)
		llm = analyzer.RateLimited(llm, rate.NewLimiter(limit, burst))
	}
	return analyzer.New(llm,
		analyzer.WithLogger(logger.Log.WithField("provider", cfg.LLM.Provider)),
		analyzer.WithParams(analyzer.GenerationParams{
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
			Temperature:     cfg.LLM.Temperature,
			TopP:            cfg.LLM.TopP,
			TopK:            cfg.LLM.TopK,
		}),
		analyzer.WithSuggestionMarker(cfg.Marker(analyzer.DefaultSuggestionMarker)),
	)
}

func buildLLM(c config.LLMConfig) (analyzer.LLMClient, error) {
	settings := &analyzer.LLMSettings{
		Provider: c.Provider,
		Model:    c.Model,
		APIKey:   c.APIKey,
		BaseURL:  c.BaseURL,
	}
	switch c.Provider {
	case "gemini":
		return analyzer.NewGeminiLLMFromConfig(settings, nil)
	case "openai":
		return analyzer.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek exposes an OpenAI-compatible API; base_url is required.
		if c.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return analyzer.NewOpenAILLMFromConfig(settings)
	case "mock":
		return analyzer.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", c.Provider)
	}
}

func buildStore(ctx context.Context, cfg config.Config) (review.Store, error) {
	if cfg.DB.Driver == "postgres" {
		store, err := review.NewPostgresStore(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, err
		}
		logger.Log.Info("connected to postgres review store")
		return store, nil
	}
	logger.Log.Info("using in-memory review store")
	return review.NewMemoryStore(), nil
}

func listenAndServe(ctx context.Context, addr string, h http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Infof("starting web server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Log.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
