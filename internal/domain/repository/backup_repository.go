package repository

import (
	"context"
	"encoding/json"
)

// TableDumper exports every row of a table as JSON objects.
type TableDumper interface {
	Tables() []string
	DumpTable(ctx context.Context, table string) ([]json.RawMessage, error)
}
