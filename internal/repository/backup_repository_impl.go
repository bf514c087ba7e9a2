package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	domainRepo "medledger/internal/domain/repository"

	"gorm.io/gorm"
)

var (
	portalTables = []string{
		"roles", "users", "doctors", "medical_records", "appointments",
		"insurances", "medical_cards", "notifications", "audit_logs",
	}
	ledgerTables = []string{
		"ledger.users", "ledger.wallets", "ledger.transactions",
		"ledger.loan_requests", "ledger.notifications",
	}
)

type portalDumper struct {
	db *gorm.DB
}

// NewPortalDumper exports the ORM tables.
func NewPortalDumper(db *gorm.DB) domainRepo.TableDumper {
	return &portalDumper{db: db}
}

func (d *portalDumper) Tables() []string {
	return portalTables
}

func (d *portalDumper) DumpTable(ctx context.Context, table string) ([]json.RawMessage, error) {
	if !slices.Contains(portalTables, table) {
		return nil, fmt.Errorf("unknown portal table %q", table)
	}

	rows, err := d.db.WithContext(ctx).Raw(`SELECT row_to_json(t) FROM ` + table + ` t`).Rows()
	if err != nil {
		return nil, fmt.Errorf("dump %s: %w", table, err)
	}
	defer rows.Close()

	out := []json.RawMessage{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, json.RawMessage(raw))
	}
	return out, rows.Err()
}

type ledgerDumper struct {
	db domainRepo.DBTX
}

// NewLedgerDumper exports the raw SQL ledger tables.
func NewLedgerDumper(db domainRepo.DBTX) domainRepo.TableDumper {
	return &ledgerDumper{db: db}
}

func (d *ledgerDumper) Tables() []string {
	return ledgerTables
}

func (d *ledgerDumper) DumpTable(ctx context.Context, table string) ([]json.RawMessage, error) {
	if !slices.Contains(ledgerTables, table) {
		return nil, fmt.Errorf("unknown ledger table %q", table)
	}

	rows, err := d.db.Query(ctx, `SELECT row_to_json(t)::text FROM `+table+` t`)
	if err != nil {
		return nil, fmt.Errorf("dump %s: %w", table, err)
	}
	defer rows.Close()

	out := []json.RawMessage{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, json.RawMessage(raw))
	}
	return out, rows.Err()
}
