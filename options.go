package allerpredict

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cfg config.Config

	embedder  Embedder
	generator Generator

	logger     *slog.Logger
	zapLogger  *zap.Logger
	metricsReg prometheus.Registerer
}

// WithCatalogPath sets the product catalog JSON file. Default: data/metadata.json.
func WithCatalogPath(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Catalog.Path = path
	})
}

// WithExactMatch disables substring product lookup.
// Names must then match exactly, ignoring case.
func WithExactMatch() Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Catalog.MatchMode = "exact"
	})
}

// WithEmbeddingEndpoint configures an OpenAI-compatible embedding API.
// Defaults to the local Ollama endpoint with all-minilm.
func WithEmbeddingEndpoint(baseURL, model, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.BaseURL = baseURL
		c.cfg.Embedding.Model = model
		c.cfg.Embedding.APIKey = apiKey
	})
}

// WithEmbeddingInstructions sets the prefixes prepended to queries and catalog documents.
// Instruction-tuned models such as e5 expect "query: " and "passage: ".
func WithEmbeddingInstructions(query, document string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.QueryInstruction = query
		c.cfg.Embedding.DocumentInstruction = document
	})
}

// WithEmbedder replaces the embedding API with a custom provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOllama runs generation through the local ollama CLI with the given model.
// This is the default, with phi3.
func WithOllama(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Generation.Backend = "process"
		c.cfg.Generation.Command = "ollama"
		c.cfg.Generation.Args = nil
		c.cfg.Generation.Model = model
	})
}

// WithCommand runs generation through an arbitrary executable.
// The prompt is written to its stdin and the answer read from its stdout.
func WithCommand(command string, args ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Generation.Backend = "process"
		c.cfg.Generation.Command = command
		c.cfg.Generation.Args = args
	})
}

// WithOpenAIGenerator runs generation through an OpenAI-compatible chat completion API.
func WithOpenAIGenerator(baseURL, model, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Generation.Backend = "openai"
		c.cfg.Generation.BaseURL = baseURL
		c.cfg.Generation.Model = model
		c.cfg.Generation.APIKey = apiKey
	})
}

// WithGenerator replaces the generation backend with a custom one.
// Errors it returns are reported as generation failures.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithReportTemplate asks the model for a narrative before the JSON object.
// The narrative is returned in Analysis.Narrative.
func WithReportTemplate() Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Generation.Template = "report"
	})
}

// WithGenerationTimeout bounds a single generation attempt. Default: 120s.
func WithGenerationTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Generation.TimeoutSec = int(d.Round(time.Second) / time.Second)
		if c.cfg.Generation.TimeoutSec < 1 {
			c.cfg.Generation.TimeoutSec = 1
		}
	})
}

// WithRetries retries timed out or crashed generation attempts.
// Default: no retries.
func WithRetries(n int, backoff time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Generation.MaxRetries = n
		c.cfg.Generation.RetryBackoffMS = int(backoff / time.Millisecond)
	})
}

// WithTopK sets how many catalog products are retrieved as context. Default: 2.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Retrieval.TopK = k
	})
}

// WithMaxAlternatives caps the safe alternatives per analysis. Default: 5.
func WithMaxAlternatives(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Retrieval.MaxAlternatives = n
	})
}

// WithRedis caches catalog embeddings in Redis so restarts skip the embedding API.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Cache.Enabled = true
		c.cfg.Cache.Addrs = []string{addr}
		c.cfg.Cache.Password = password
	})
}

// WithCacheTTL expires cached embeddings. Default: no expiry.
func WithCacheTTL(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Cache.TTLHours = int(d / time.Hour)
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPipelineLogger receives the pipeline's internal zap logs.
// Default: discarded.
func WithPipelineLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.zapLogger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
