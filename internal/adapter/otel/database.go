package otel

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/neomorfeo/wafd/internal/adapter/sqlite"
)

// dbAttributes tag every driver span and pool metric of the allocation
// database.
var dbAttributes = []attribute.KeyValue{
	semconv.DBSystemSqlite,
	attribute.String("wafd.db", "allocation"),
}

// OpenDB opens the allocation database through otelsql and applies the
// same connection settings as sqlite.New. Row iteration and session resets
// are left out of the traces: allocation transactions issue many single-row
// lookups and those spans would drown the statements themselves.
func OpenDB(dataSourceName string) (*sql.DB, error) {
	db, err := otelsql.Open("sqlite", dataSourceName,
		otelsql.WithAttributes(dbAttributes...),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			OmitConnResetSession: true,
			OmitRows:             true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("opening instrumented database: %w", err)
	}

	if err := sqlite.Configure(db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(dbAttributes...)); err != nil {
		db.Close()
		return nil, fmt.Errorf("registering db stats metrics: %w", err)
	}

	return db, nil
}
