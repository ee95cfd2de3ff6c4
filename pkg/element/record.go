/*
Copyright 2022 The Numaproj Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package element contains the record and control-element types that flow
// between operators: a typed, schema-carrying column tuple (Record) and the
// tagged union of values that can travel on a handover channel (Element).
package element

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
)

// ColumnType tags the wire type of one column in a Record's Schema. The
// schema is carried on the record rather than baked into a generated type,
// since schemas flow from user job configuration and are not known at
// compile time.
type ColumnType uint8

const (
	ColumnTypeUnknown ColumnType = iota
	ColumnTypeBool
	ColumnTypeInt32
	ColumnTypeInt64
	ColumnTypeFloat64
	ColumnTypeString
	ColumnTypeBytes
)

// Schema is the ordered list of column type tags for a Record.
type Schema []ColumnType

// Record is an ordered, byte-addressable column tuple. Records are
// value-like: Clone, equality-by-payload and Hash are all defined over the
// raw payload, never over the schema alone. A Record does not carry a
// timestamp of its own. The event-time timestamp extracted by
// watermark/assign only advances that generator's watermark; it is not
// stored on the Record or on the Element that carries it.
type Record struct {
	schema  Schema
	payload []byte
	// offsets[i] is the byte offset of column i within payload; offsets
	// has len(schema)+1 entries so the last column's length is
	// offsets[len(schema)] - offsets[len(schema)-1].
	offsets []int
}

// NewRecord creates an empty record with the given schema, ready for a
// Writer to append columns to it in order.
func NewRecord(schema Schema) *Record {
	return &Record{
		schema:  schema,
		offsets: []int{0},
	}
}

// NewRecordWithCapacity pre-allocates the payload buffer; capacity is a
// hint, callers may still append past it.
func NewRecordWithCapacity(schema Schema, capacity int) *Record {
	r := NewRecord(schema)
	r.payload = make([]byte, 0, capacity)
	return r
}

// Len returns the number of columns in the record's schema.
func (r *Record) Len() int {
	return len(r.schema)
}

// Schema returns the record's column type tags.
func (r *Record) Schema() Schema {
	return r.schema
}

// Clone returns a deep copy of the record; the clone shares no backing
// arrays with the original.
func (r *Record) Clone() *Record {
	clone := &Record{
		schema:  append(Schema(nil), r.schema...),
		payload: append([]byte(nil), r.payload...),
		offsets: append([]int(nil), r.offsets...),
	}
	return clone
}

// Equal compares two records by payload only; the schema is not part of
// the comparison since two records sharing a schema is the normal case
// and the schema is redundant with the payload layout.
func (r *Record) Equal(other *Record) bool {
	if other == nil {
		return false
	}
	return bytes.Equal(r.payload, other.payload)
}

// Hash hashes the record's raw payload bytes -- hashing, like equality, is
// over the byte payload, never the schema.
func (r *Record) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write(r.payload)
	return h.Sum64()
}

// RawPayload exposes the record's raw payload bytes, for callers (such as
// the keyed state store) that need a comparable, hashable representation
// of "this record's value" to use as a map key. Callers must not mutate
// the returned slice.
func (r *Record) RawPayload() []byte {
	return r.payload
}

// Writer appends columns to a record in schema order. A Writer is not
// safe for concurrent use.
type Writer struct {
	record *Record
	next   int
}

// NewWriter returns an append-only writer over the record's remaining
// columns.
func (r *Record) NewWriter() *Writer {
	return &Writer{record: r, next: len(r.offsets) - 1}
}

// SetBytesRaw appends the next column's raw encoding.
func (w *Writer) SetBytesRaw(b []byte) error {
	if w.next >= len(w.record.schema) {
		return fmt.Errorf("element: writer has no more columns to set (schema has %d columns)", len(w.record.schema))
	}
	w.record.payload = append(w.record.payload, b...)
	w.record.offsets = append(w.record.offsets, len(w.record.payload))
	w.next++
	return nil
}

func (w *Writer) SetBool(v bool) error {
	var b byte
	if v {
		b = 1
	}
	return w.SetBytesRaw([]byte{b})
}

func (w *Writer) SetInt64(v int64) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return w.SetBytesRaw(b)
}

func (w *Writer) SetFloat64(v float64) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return w.SetBytesRaw(b)
}

func (w *Writer) SetString(v string) error {
	return w.SetBytesRaw([]byte(v))
}

// Reader provides random-access typed column extraction over a record.
type Reader struct {
	record *Record
}

// NewReader returns a reader over the record's columns.
func (r *Record) NewReader() *Reader {
	return &Reader{record: r}
}

// GetBytesRaw returns column index's raw encoding.
func (rd *Reader) GetBytesRaw(index int) ([]byte, error) {
	if index < 0 || index >= len(rd.record.schema) {
		return nil, fmt.Errorf("element: column index %d out of range (schema has %d columns)", index, len(rd.record.schema))
	}
	if index+1 >= len(rd.record.offsets) {
		return nil, fmt.Errorf("element: column index %d has not been written yet", index)
	}
	return rd.record.payload[rd.record.offsets[index]:rd.record.offsets[index+1]], nil
}

func (rd *Reader) GetBool(index int) (bool, error) {
	b, err := rd.GetBytesRaw(index)
	if err != nil {
		return false, err
	}
	return len(b) > 0 && b[0] != 0, nil
}

func (rd *Reader) GetInt64(index int) (int64, error) {
	b, err := rd.GetBytesRaw(index)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (rd *Reader) GetFloat64(index int) (float64, error) {
	b, err := rd.GetBytesRaw(index)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (rd *Reader) GetString(index int) (string, error) {
	b, err := rd.GetBytesRaw(index)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Project builds a new record containing only the given column indices,
// in the order given. This is how a key selector derives a grouping key
// from a data record without special-casing the key's shape.
func (r *Record) Project(indices []int) (*Record, error) {
	schema := make(Schema, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(r.schema) {
			return nil, fmt.Errorf("element: project index %d out of range", idx)
		}
		schema[i] = r.schema[idx]
	}
	projected := NewRecordWithCapacity(schema, len(r.payload))
	w := projected.NewWriter()
	reader := r.NewReader()
	for _, idx := range indices {
		raw, err := reader.GetBytesRaw(idx)
		if err != nil {
			return nil, err
		}
		if err := w.SetBytesRaw(raw); err != nil {
			return nil, err
		}
	}
	return projected, nil
}
