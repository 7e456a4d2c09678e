package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is how many words go into one embeddings request
const DefaultBatchSize = 32

// ErrEmbeddingProvider wraps every failure of the embeddings API
var ErrEmbeddingProvider = errors.New("embedding provider error")

// Embedder turns a batch of words into vectors, one per word, in order
type Embedder interface {
	Embed(ctx context.Context, words []string) ([][]float32, error)
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbedder(apiKey, baseURL, model string) *OpenAIEmbedder {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.EmbeddingModel(model),
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, words []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          words,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: API error %d: %s", ErrEmbeddingProvider, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingProvider, err)
	}
	if len(resp.Data) != len(words) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d words", ErrEmbeddingProvider, len(resp.Data), len(words))
	}

	out := make([][]float32, len(words))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(words) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrEmbeddingProvider, d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// Build embeds words in batches of batchSize, at most parallel requests at
// a time. The first failure cancels the remaining batches.
func Build(ctx context.Context, words []string, embedder Embedder, batchSize, parallel int) (*Store, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if parallel <= 0 {
		parallel = 1
	}

	start := time.Now()
	vectors := make([][]float32, len(words))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for lo := 0; lo < len(words); lo += batchSize {
		hi := min(lo+batchSize, len(words))
		g.Go(func() error {
			batch, err := embedder.Embed(gctx, words[lo:hi])
			if err != nil {
				return fmt.Errorf("embed words %d-%d: %w", lo, hi-1, err)
			}
			if len(batch) != hi-lo {
				return fmt.Errorf("embed words %d-%d: got %d vectors", lo, hi-1, len(batch))
			}
			copy(vectors[lo:hi], batch)
			if lo == 0 || hi%500 < batchSize {
				log.Debugf("Embedded %d/%d words", hi, len(words))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Store{Vectors: vectors}
	if len(vectors) > 0 {
		s.Dim = len(vectors[0])
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	log.Infof("Embedded %d words (dimension %d) in %v", len(words), s.Dim, time.Since(start))
	return s, nil
}
