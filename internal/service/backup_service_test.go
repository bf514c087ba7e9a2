package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medledger/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDumper struct {
	tables map[string][]json.RawMessage
	order  []string
	err    error
}

func (f *fakeDumper) Tables() []string { return f.order }

func (f *fakeDumper) DumpTable(_ context.Context, table string) ([]json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tables[table], nil
}

type fakeSender struct {
	filename string
	content  []byte
	err      error
}

func (f *fakeSender) SendDocument(_ context.Context, filename string, content []byte, _ string) error {
	f.filename = filename
	f.content = content
	return f.err
}

func newFakeDumper() *fakeDumper {
	return &fakeDumper{
		order: []string{"ledger.users", "ledger.wallets"},
		tables: map[string][]json.RawMessage{
			"ledger.users":   {json.RawMessage(`{"id":1}`), json.RawMessage(`{"id":2}`)},
			"ledger.wallets": {},
		},
	}
}

func TestBackupServiceRunSendsGzippedDocument(t *testing.T) {
	sender := &fakeSender{}
	svc := NewBackupService(sender, quietLogger(), newFakeDumper())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 3, 4, 5, 0, time.UTC) }

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "medledger-backup-20240501-030405.json.gz", result.Filename)
	assert.Equal(t, map[string]int{"ledger.users": 2, "ledger.wallets": 0}, result.Tables)
	assert.Equal(t, result.Filename, sender.filename)

	gz, err := gzip.NewReader(bytes.NewReader(sender.content))
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)

	var doc struct {
		CreatedAt time.Time                    `json:"created_at"`
		Tables    map[string][]json.RawMessage `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Len(t, doc.Tables["ledger.users"], 2)
	assert.NotNil(t, doc.Tables["ledger.wallets"])
}

func TestBackupServiceStopsOnDumpError(t *testing.T) {
	dumper := newFakeDumper()
	dumper.err = errors.New("boom")
	sender := &fakeSender{}

	_, err := NewBackupService(sender, quietLogger(), dumper).Run(context.Background())
	assert.Error(t, err)
	assert.Nil(t, sender.content)
}

func TestTelegramClientSendDocument(t *testing.T) {
	var gotChat, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendDocument", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotChat = r.FormValue("chat_id")
		_, header, err := r.FormFile("document")
		if !assert.NoError(t, err) {
			return
		}
		gotFile = header.Filename
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewTelegramClient(config.TelegramConfig{BotToken: "TOKEN", ChatID: "-100", APIBase: srv.URL})
	require.NoError(t, client.SendDocument(context.Background(), "b.json.gz", []byte("data"), "cap"))
	assert.Equal(t, "-100", gotChat)
	assert.Equal(t, "b.json.gz", gotFile)
}

func TestTelegramClientReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	client := NewTelegramClient(config.TelegramConfig{BotToken: "T", ChatID: "1", APIBase: srv.URL})
	err := client.SendDocument(context.Background(), "x", []byte("d"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramClientNotConfigured(t *testing.T) {
	err := NewTelegramClient(config.TelegramConfig{}).SendDocument(context.Background(), "x", nil, "")
	assert.ErrorIs(t, err, ErrBackupNotConfigured)
}
