package config

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SecretStore is an external collaborator that encrypts and decrypts
// opaque strings. The core never defines the on-disk encoding of
// secrets; that is SecretStore's concern.
type SecretStore interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

// ConfigStore is an external collaborator that reads and writes
// user preferences: the council roster, the chairman model, and the
// encrypted API key.
type ConfigStore interface {
	GetCouncilModels(ctx context.Context) ([]string, error)
	SetCouncilModels(ctx context.Context, models []string) error
	GetChairmanModel(ctx context.Context) (string, error)
	SetChairmanModel(ctx context.Context, model string) error
	GetEncryptedAPIKey(ctx context.Context) (string, error)
	SetEncryptedAPIKey(ctx context.Context, encrypted string) error
	GetAPIBaseURL(ctx context.Context) (string, error)
}

// GatewayConfig is the resolved configuration needed to address the LLM
// gateway: credentials, base URL, council roster, and chairman model.
type GatewayConfig struct {
	APIKey        string
	APIBaseURL    string
	CouncilModels []string
	ChairmanModel string
}

// DefaultCouncilModels and DefaultChairmanModel are the built-in
// defaults used when neither the environment nor the ConfigStore names
// a roster.
var (
	DefaultCouncilModels = []string{
		"openai/gpt-5.2",
		"google/gemini-3-pro-preview",
		"anthropic/claude-opus-4.6",
	}
	DefaultChairmanModel = "google/gemini-3-pro-preview"
	DefaultAPIBaseURL    = "https://openrouter.ai/api/v1"
)

// Service resolves GatewayConfig by precedence: environment, then
// ConfigStore preferences, then built-in defaults. It also exposes the
// two persistence operations, SaveAPIKey and SaveCouncilConfig.
type Service struct {
	secrets SecretStore
	store   ConfigStore
}

// NewService builds a Service backed by the given collaborators. Either
// may be nil — Resolve then falls through straight to env/defaults for
// whatever it can't reach.
func NewService(secrets SecretStore, store ConfigStore) *Service {
	return &Service{secrets: secrets, store: store}
}

// Resolve computes the GatewayConfig in effect right now, checking
// environment variables first (OPENROUTER_API_KEY, COUNCIL_MODELS,
// CHAIRMAN_MODEL, OPENROUTER_API_URL), then the ConfigStore, then
// defaults. Each field resolves independently — an env override for one
// field does not suppress ConfigStore lookups for the others.
func (s *Service) Resolve(ctx context.Context) (GatewayConfig, error) {
	cfg := GatewayConfig{
		APIBaseURL:    DefaultAPIBaseURL,
		CouncilModels: DefaultCouncilModels,
		ChairmanModel: DefaultChairmanModel,
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.APIKey = v
	} else if s.secrets != nil && s.store != nil {
		if encrypted, err := s.store.GetEncryptedAPIKey(ctx); err == nil && encrypted != "" {
			plain, err := s.secrets.Decrypt(ctx, encrypted)
			if err != nil {
				return cfg, fmt.Errorf("decrypt stored api key: %w", err)
			}
			cfg.APIKey = plain
		}
	}

	if v := os.Getenv("COUNCIL_MODELS"); v != "" {
		cfg.CouncilModels = splitCommaList(v)
	} else if s.store != nil {
		if models, err := s.store.GetCouncilModels(ctx); err == nil && len(models) > 0 {
			cfg.CouncilModels = models
		}
	}

	if v := os.Getenv("CHAIRMAN_MODEL"); v != "" {
		cfg.ChairmanModel = v
	} else if s.store != nil {
		if model, err := s.store.GetChairmanModel(ctx); err == nil && model != "" {
			cfg.ChairmanModel = model
		}
	}

	if v := os.Getenv("OPENROUTER_API_URL"); v != "" {
		cfg.APIBaseURL = v
	} else if s.store != nil {
		if url, err := s.store.GetAPIBaseURL(ctx); err == nil && url != "" {
			cfg.APIBaseURL = url
		}
	}

	return cfg, nil
}

// SaveAPIKey encrypts key via SecretStore and persists it via ConfigStore.
func (s *Service) SaveAPIKey(ctx context.Context, key string) error {
	if s.secrets == nil || s.store == nil {
		return fmt.Errorf("config: SaveAPIKey requires both a SecretStore and a ConfigStore")
	}
	encrypted, err := s.secrets.Encrypt(ctx, key)
	if err != nil {
		return fmt.Errorf("encrypt api key: %w", err)
	}
	return s.store.SetEncryptedAPIKey(ctx, encrypted)
}

// SaveCouncilConfig persists the chairman model, council roster, and API
// key as individual ConfigStore fields; empty arguments leave the
// corresponding field untouched.
func (s *Service) SaveCouncilConfig(ctx context.Context, chairman string, council []string, apiKey string) error {
	if s.store == nil {
		return fmt.Errorf("config: SaveCouncilConfig requires a ConfigStore")
	}
	if chairman != "" {
		if err := s.store.SetChairmanModel(ctx, chairman); err != nil {
			return fmt.Errorf("save chairman model: %w", err)
		}
	}
	if len(council) > 0 {
		if err := s.store.SetCouncilModels(ctx, council); err != nil {
			return fmt.Errorf("save council models: %w", err)
		}
	}
	if apiKey != "" {
		if err := s.SaveAPIKey(ctx, apiKey); err != nil {
			return err
		}
	}
	return nil
}

func splitCommaList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
