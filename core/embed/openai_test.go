package embed

import (
	"errors"
	"testing"
)

func TestNewOpenAIEncoderRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewOpenAIEncoder(OpenAIConfig{})
	if !errors.Is(err, ErrEncoderUnavailable) {
		t.Errorf("NewOpenAIEncoder() error = %v, want ErrEncoderUnavailable", err)
	}
}

func TestNewOpenAIEncoderDefaults(t *testing.T) {
	enc, err := NewOpenAIEncoder(OpenAIConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewOpenAIEncoder() error = %v", err)
	}

	if enc.cfg.Model != openaiDefaultModel {
		t.Errorf("Model = %q, want %q", enc.cfg.Model, openaiDefaultModel)
	}
	if enc.cfg.BatchSize != openaiDefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", enc.cfg.BatchSize, openaiDefaultBatchSize)
	}
	if got := enc.Dimension(); got != openaiDefaultDimension {
		t.Errorf("Dimension() = %d, want %d", got, openaiDefaultDimension)
	}
}
