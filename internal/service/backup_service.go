package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	domainRepo "medledger/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

// BackupResult summarizes one backup run.
type BackupResult struct {
	Filename  string         `json:"filename"`
	SizeBytes int            `json:"size_bytes"`
	Tables    map[string]int `json:"tables"`
	CreatedAt time.Time      `json:"created_at"`
}

type backupDocument struct {
	CreatedAt time.Time                    `json:"created_at"`
	Tables    map[string][]json.RawMessage `json:"tables"`
}

type BackupService struct {
	dumpers []domainRepo.TableDumper
	sender  DocumentSender
	log     *logrus.Logger
	now     func() time.Time
}

func NewBackupService(sender DocumentSender, log *logrus.Logger, dumpers ...domainRepo.TableDumper) *BackupService {
	return &BackupService{
		dumpers: dumpers,
		sender:  sender,
		log:     log,
		now:     time.Now,
	}
}

// Build dumps every table into a gzipped JSON document.
func (s *BackupService) Build(ctx context.Context) ([]byte, *BackupResult, error) {
	createdAt := s.now().UTC()
	doc := backupDocument{
		CreatedAt: createdAt,
		Tables:    make(map[string][]json.RawMessage),
	}
	result := &BackupResult{
		Filename:  fmt.Sprintf("medledger-backup-%s.json.gz", createdAt.Format("20060102-150405")),
		Tables:    make(map[string]int),
		CreatedAt: createdAt,
	}

	for _, dumper := range s.dumpers {
		for _, table := range dumper.Tables() {
			rows, err := dumper.DumpTable(ctx, table)
			if err != nil {
				s.log.Warnf("Failed to dump table %s: %+v", table, err)
				return nil, nil, err
			}
			doc.Tables[table] = rows
			result.Tables[table] = len(rows)
		}
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Name = result.Filename
	if err := json.NewEncoder(gz).Encode(doc); err != nil {
		return nil, nil, fmt.Errorf("encode backup: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, nil, fmt.Errorf("compress backup: %w", err)
	}

	result.SizeBytes = buf.Len()
	return buf.Bytes(), result, nil
}

// Run builds a backup and sends it to the configured Telegram chat.
func (s *BackupService) Run(ctx context.Context) (*BackupResult, error) {
	startTime := time.Now()

	archive, result, err := s.Build(ctx)
	if err != nil {
		return nil, err
	}

	caption := fmt.Sprintf("MedLedger backup %s (%d tables)", result.CreatedAt.Format(time.RFC3339), len(result.Tables))
	if err := s.sender.SendDocument(ctx, result.Filename, archive, caption); err != nil {
		s.log.Warnf("Failed to send backup %s: %+v", result.Filename, err)
		return nil, err
	}

	s.log.Infof("Backup %s sent: %d bytes in %v", result.Filename, result.SizeBytes, time.Since(startTime))
	return result, nil
}
