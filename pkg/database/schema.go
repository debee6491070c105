package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// SchemaProbe answers whether optional columns exist on the primary store,
// tolerating schema drift across deployments. Unknown schema state is
// treated as "column absent" so callers degrade to narrower queries rather
// than failing a request.
type SchemaProbe struct {
	db      *sqlx.DB
	dbName  string
	autoAdd bool
	logger  *zap.Logger
}

// NewSchemaProbe builds a probe scoped to the given database name. When
// autoAdd is set, EnsureColumn may issue best-effort DDL.
func NewSchemaProbe(db *sqlx.DB, dbName string, autoAdd bool, logger *zap.Logger) *SchemaProbe {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaProbe{db: db, dbName: dbName, autoAdd: autoAdd, logger: logger}
}

// ColumnExists reports whether table.column exists in the current database.
// It never returns an error: a failed probe reads as false.
func (p *SchemaProbe) ColumnExists(ctx context.Context, table, column string) bool {
	if p == nil || p.db == nil {
		return false
	}
	const query = `SELECT COUNT(*) FROM information_schema.COLUMNS
        WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND COLUMN_NAME = ?`
	var count int
	if err := p.db.GetContext(ctx, &count, query, p.dbName, table, column); err != nil {
		p.logger.Debug("schema probe failed, treating column as absent",
			zap.String("table", table), zap.String("column", column), zap.Error(err))
		return false
	}
	return count > 0
}

// EnsureColumn adds the column when the probe reports it absent and DDL is
// enabled. A failed ALTER is swallowed: the caller proceeds with the
// guaranteed columns only. Returns whether the column can be used.
func (p *SchemaProbe) EnsureColumn(ctx context.Context, table, column, definition string) bool {
	if p.ColumnExists(ctx, table, column) {
		return true
	}
	if !p.autoAdd {
		return false
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)
	if _, err := p.db.ExecContext(ctx, stmt); err != nil {
		p.logger.Warn("auto-add column failed, continuing without it",
			zap.String("table", table), zap.String("column", column), zap.Error(err))
		return false
	}
	p.logger.Info("added missing column",
		zap.String("table", table), zap.String("column", column))
	return true
}
