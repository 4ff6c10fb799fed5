package embed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	openaiDefaultModel     = openai.EmbeddingModelTextEmbedding3Small
	openaiDefaultDimension = 1536
	openaiDefaultBatchSize = 128
	openaiDefaultTimeout   = 30 * time.Second
)

// OpenAIConfig configures the remote embedding encoder.
type OpenAIConfig struct {
	// APIKey authenticates against the API. Empty falls back to the
	// OPENAI_API_KEY environment variable.
	APIKey string

	// BaseURL overrides the API endpoint, e.g. for a compatible proxy.
	BaseURL string

	// Model selects the embedding model.
	Model openai.EmbeddingModel

	// Dimension requests a reduced output width where the model supports
	// it. Zero keeps the model's native width.
	Dimension int

	// BatchSize caps inputs per request.
	BatchSize int

	// Timeout bounds each request.
	Timeout time.Duration
}

// DefaultOpenAIConfig returns the standard remote encoder parameters.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Model:     openaiDefaultModel,
		Dimension: openaiDefaultDimension,
		BatchSize: openaiDefaultBatchSize,
		Timeout:   openaiDefaultTimeout,
	}
}

// OpenAIEncoder embeds text through the OpenAI embeddings endpoint. Remote
// models are deterministic enough for serving but not bit-stable across
// model revisions; builds record the model name so stale spaces can be
// detected on reload.
type OpenAIEncoder struct {
	client *openai.Client
	cfg    OpenAIConfig
}

// NewOpenAIEncoder creates the encoder. An API key must be available via
// config or environment.
func NewOpenAIEncoder(cfg OpenAIConfig) (*OpenAIEncoder, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai encoder: %w: no API key", ErrEncoderUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = openaiDefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = openaiDefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = openaiDefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)
	return &OpenAIEncoder{client: &client, cfg: cfg}, nil
}

func (o *OpenAIEncoder) Dimension() int {
	if o.cfg.Dimension > 0 {
		return o.cfg.Dimension
	}
	return openaiDefaultDimension
}

func (o *OpenAIEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (o *OpenAIEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	// Blank inputs get zero vectors locally; the API rejects them.
	var indices []int
	var inputs []string
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			out[i] = make([]float32, o.Dimension())
			continue
		}
		indices = append(indices, i)
		inputs = append(inputs, text)
	}

	for start := 0; start < len(inputs); start += o.cfg.BatchSize {
		end := min(start+o.cfg.BatchSize, len(inputs))
		vecs, err := o.embedChunk(ctx, inputs[start:end])
		if err != nil {
			return nil, err
		}
		for i, vec := range vecs {
			out[indices[start+i]] = vec
		}
	}
	return out, nil
}

func (o *OpenAIEncoder) embedChunk(ctx context.Context, inputs []string) ([][]float32, error) {
	rctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: o.cfg.Model,
	}
	if o.cfg.Dimension > 0 {
		params.Dimensions = openai.Int(int64(o.cfg.Dimension))
	}

	response, err := o.client.Embeddings.New(rctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(response.Data) != len(inputs) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(response.Data), len(inputs))
	}

	out := make([][]float32, len(inputs))
	for _, item := range response.Data {
		idx := int(item.Index)
		if idx < 0 || idx >= len(inputs) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", item.Index)
		}
		vec := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		out[idx] = vec
	}
	return out, nil
}
