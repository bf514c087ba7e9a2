package usecase

import (
	"context"
	"errors"
	"strings"

	"medledger/internal/delivery/dto"
	"medledger/internal/service"

	"github.com/sirupsen/logrus"
)

const (
	// ChatHistoryLimit is how many earlier turns are sent to the model.
	ChatHistoryLimit = 20
	chatMessageLimit = 4000
)

var (
	ErrChatUnavailable = errors.New("health assistant is not configured")
	ErrChatFailed      = errors.New("health assistant is unavailable, try again later")
	ErrEmptyMessage    = errors.New("message is required")
	ErrMessageTooLong  = errors.New("message is too long")
)

type ChatUsecase interface {
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

type chatUsecase struct {
	log   *logrus.Logger
	model service.ChatModel
}

// NewChatUsecase accepts a nil model; every call then reports the
// assistant as unavailable.
func NewChatUsecase(log *logrus.Logger, model service.ChatModel) ChatUsecase {
	return &chatUsecase{
		log:   log,
		model: model,
	}
}

func (u *chatUsecase) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	if u.model == nil {
		return nil, ErrChatUnavailable
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if len([]rune(message)) > chatMessageLimit {
		return nil, ErrMessageTooLong
	}

	history := req.History
	if len(history) > ChatHistoryLimit {
		history = history[len(history)-ChatHistoryLimit:]
	}

	turns := make([]service.ChatTurn, 0, len(history))
	for _, turn := range history {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		role := service.ChatRoleUser
		if turn.Role == service.ChatRoleAssistant {
			role = service.ChatRoleAssistant
		}
		turns = append(turns, service.ChatTurn{Role: role, Content: content})
	}

	reply, err := u.model.Reply(ctx, turns, message)
	if err != nil {
		u.log.Warnf("Failed to get assistant reply: %+v", err)
		return nil, ErrChatFailed
	}

	return &dto.ChatResponse{Reply: reply}, nil
}
