package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"medledger/config"
)

var ErrBackupNotConfigured = errors.New("telegram backup is not configured")

// DocumentSender delivers a file to an operator channel.
type DocumentSender interface {
	SendDocument(ctx context.Context, filename string, content []byte, caption string) error
}

type TelegramClient struct {
	cfg        config.TelegramConfig
	httpClient *http.Client
}

func NewTelegramClient(cfg config.TelegramConfig) *TelegramClient {
	return &TelegramClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendDocument uploads content with the Bot API sendDocument method.
func (c *TelegramClient) SendDocument(ctx context.Context, filename string, content []byte, caption string) error {
	if !c.cfg.Enabled() {
		return ErrBackupNotConfigured
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("chat_id", c.cfg.ChatID); err != nil {
		return err
	}
	if caption != "" {
		if err := form.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := form.CreateFormFile("document", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	if err := form.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendDocument", c.cfg.APIBase, c.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram sendDocument: %w", err)
	}
	defer resp.Body.Close()

	var result telegramResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&result); err != nil {
		return fmt.Errorf("telegram sendDocument: status %d: %w", resp.StatusCode, err)
	}
	if !result.OK {
		return fmt.Errorf("telegram sendDocument: %s", result.Description)
	}
	return nil
}
