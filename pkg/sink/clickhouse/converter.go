package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/yorkart/rlink-go/pkg/element"
	"github.com/yorkart/rlink-go/pkg/sink"
)

// Converter builds Batches that insert into one ClickHouse table whose
// column order matches the Record schema column order.
type Converter struct {
	Columns []string
}

func (c Converter) CreateBatch(batchSize int) sink.Batch {
	return &Batch{columns: c.Columns, records: make([]*element.Record, 0, batchSize)}
}

// Batch buffers records until Flush, when it prepares a driver.Batch and
// appends every buffered record's columns in schema order.
type Batch struct {
	columns []string
	records []*element.Record
}

func (b *Batch) Append(r *element.Record) error {
	b.records = append(b.records, r)
	return nil
}

func (b *Batch) Flush(ctx context.Context, client sink.Client, table string) error {
	ch, ok := client.(*Client)
	if !ok {
		return fmt.Errorf("clickhouse: Flush requires a *clickhouse.Client, got %T", client)
	}

	query := "INSERT INTO " + table
	driverBatch, err := ch.Conn().PrepareBatch(ctx, query, driver.WithReleaseConnection())
	if err != nil {
		return fmt.Errorf("clickhouse: prepare batch: %w", err)
	}

	for _, r := range b.records {
		values, err := columnValues(r)
		if err != nil {
			return err
		}
		if err := driverBatch.Append(values...); err != nil {
			return fmt.Errorf("clickhouse: append row: %w", err)
		}
	}
	return driverBatch.Send()
}

// columnValues decodes every column of r into a Go value the
// clickhouse-go driver can bind, in schema order.
func columnValues(r *element.Record) ([]any, error) {
	reader := r.NewReader()
	schema := r.Schema()
	values := make([]any, r.Len())
	for i, col := range schema {
		var (
			v   any
			err error
		)
		switch col {
		case element.ColumnTypeBool:
			v, err = reader.GetBool(i)
		case element.ColumnTypeInt64:
			v, err = reader.GetInt64(i)
		case element.ColumnTypeFloat64:
			v, err = reader.GetFloat64(i)
		case element.ColumnTypeString:
			v, err = reader.GetString(i)
		case element.ColumnTypeBytes:
			v, err = reader.GetBytesRaw(i)
		default:
			err = fmt.Errorf("clickhouse: unsupported column type %v at index %d", col, i)
		}
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
