package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medledger/config"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

var ErrEmptyReply = errors.New("model returned an empty reply")

// Chat roles as sent by the browser.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatTurn is one message of a conversation.
type ChatTurn struct {
	Role    string
	Content string
}

// ChatModel produces the assistant's next message.
type ChatModel interface {
	Reply(ctx context.Context, history []ChatTurn, message string) (string, error)
}

type geminiChatModel struct {
	client       *genai.Client
	model        string
	systemPrompt string
	log          *logrus.Logger
}

// NewGeminiChatModel returns nil when no API key is configured.
func NewGeminiChatModel(ctx context.Context, cfg config.AIConfig, log *logrus.Logger) (ChatModel, error) {
	if cfg.APIKey == "" {
		log.Warn("AI_API_KEY not set, health assistant chat disabled")
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &geminiChatModel{
		client:       client,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		log:          log,
	}, nil
}

func (m *geminiChatModel) Reply(ctx context.Context, history []ChatTurn, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == ChatRoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, genai.Role(role)))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(m.systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.4),
	})
	if err != nil {
		m.log.Warnf("Failed to generate chat reply: %+v", err)
		return "", err
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}
