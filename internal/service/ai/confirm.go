package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"chatminder/internal/config"
)

// Confirmer phrases reminder confirmations with a chat model. It is an
// optional collaborator: callers filter its output and must keep a
// deterministic template fallback for when it is absent or misbehaves.
type Confirmer struct {
	chatModel model.ToolCallingChatModel
}

var prompts = map[string]string{
	"reminder_confirmation": "You are a friendly assistant confirming a reminder you just set. " +
		"Write one short, natural sentence telling {user_name} you will remind them about '{message}' {time}. " +
		"Mention the reminder and the time. Output only the confirmation sentence.",
}

// NewConfirmer builds a Confirmer for the configured provider.
func NewConfirmer(cfg *config.Config, provider string) (*Confirmer, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(context.Background(), &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(context.Background(), &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 300,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}
	return &Confirmer{chatModel: chatModel}, nil
}

// Generate renders the named template with fields and asks the model for a
// confirmation. Unknown template names are an error.
func (c *Confirmer) Generate(ctx context.Context, template string, fields map[string]string) (string, error) {
	prompt, ok := prompts[template]
	if !ok {
		return "", fmt.Errorf("unknown template: %s", template)
	}
	for key, value := range fields {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", value)
	}

	resp, err := c.chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.User, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("generate confirmation: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
