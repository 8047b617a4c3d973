package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// chAdapter wraps a clickhouse native connection and implements Clickhouse
type chAdapter struct {
	conn driver.Conn
}

func openCH(ctx context.Context, cfg CHConfig) (*chAdapter, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.DB,
			Username: cfg.User,
			Password: cfg.Pass,
		},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct{ Name, Version string }{
				{Name: "moderato", Version: "dev"},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, err
	}
	return &chAdapter{conn: conn}, nil
}

var _ Clickhouse = (*chAdapter)(nil)

// Insert appends rows to table via a prepared batch
func (a *chAdapter) Insert(ctx context.Context, table string, cols []string, rows [][]any) error {
	if a == nil || a.conn == nil {
		return errors.New("store: nil clickhouse adapter")
	}
	if len(rows) == 0 {
		return nil
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(cols, ", "))
	batch, err := a.conn.PrepareBatch(ctx, stmt)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := batch.Append(r...); err != nil {
			_ = batch.Abort()
			return err
		}
	}
	return batch.Send()
}

// Query runs a query and returns Rows
func (a *chAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if a == nil || a.conn == nil {
		return nil, errors.New("store: nil clickhouse adapter")
	}
	r, err := a.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r: r}, nil
}

// Ping verifies connectivity with ClickHouse
func (a *chAdapter) Ping(ctx context.Context) error {
	if a == nil || a.conn == nil {
		return errors.New("store: nil clickhouse adapter")
	}
	return a.conn.Ping(ctx)
}

// Close closes the underlying connection
func (a *chAdapter) Close() error {
	if a == nil || a.conn == nil {
		return nil
	}
	return a.conn.Close()
}

// chRows adapts driver.Rows to store.Rows
type chRows struct{ r driver.Rows }

func (x chRows) Next() bool            { return x.r.Next() }
func (x chRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x chRows) Err() error            { return x.r.Err() }
func (x chRows) Close()                { _ = x.r.Close() }
