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

// Package wmb implements the wire encoding for a watermark barrier: the
// fixed-layout value a watermark assigner publishes downstream so that
// other processor instances can observe "this partition has reached at
// least this watermark" without sharing memory.
package wmb

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// WMB ("watermark barrier") is the value published per partition. Offset
// is the source offset the watermark was computed at; Watermark is the
// millisecond timestamp; Idle reports whether the partition produced no
// records at all during the window that led to this value.
type WMB struct {
	Idle      bool
	Offset    int64
	Watermark int64
}

// wireSize is the encoded size: 1 bool byte + 2 int64 fields.
const wireSize = 1 + 8 + 8

// EncodeToBytes serialises a WMB to its fixed little-endian wire layout.
func (w WMB) EncodeToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, w); err != nil {
		return nil, fmt.Errorf("wmb: encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeToWMB parses the fixed little-endian wire layout back into a WMB.
// It rejects any input that isn't exactly wireSize bytes, since a
// mismatched length means the reader and writer disagree on the struct
// layout.
func DecodeToWMB(b []byte) (WMB, error) {
	if len(b) != wireSize {
		return WMB{}, fmt.Errorf("wmb: decode failed: expected %d bytes, got %d", wireSize, len(b))
	}
	var w WMB
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &w); err != nil {
		return WMB{}, fmt.Errorf("wmb: decode failed: %w", err)
	}
	return w, nil
}

// Checker validates that the head (oldest unprocessed) WMB across a
// quorum of `required` partitions agrees on the same idle offset, so a
// caller can tell whether it is safe to advance an idle watermark. The
// reference offset is only (re)captured after a non-idle observation;
// an idle observation that disagrees with the current reference simply
// fails this round without discarding the reference, since the
// reference remains authoritative until a partition reports activity.
type Checker struct {
	required   int
	counter    int
	headOffset int64
	hasHead    bool
}

// NewWMBChecker returns a Checker that requires `required` consecutive
// matching idle observations before validating.
func NewWMBChecker(required int) *Checker {
	return &Checker{required: required}
}

// ValidateHeadWMB records one observation of the head WMB. It returns true
// once `required` consecutive idle observations agreeing with the current
// reference offset have been seen. Any non-idle observation resets the
// reference so the next idle observation recaptures it.
func (c *Checker) ValidateHeadWMB(head WMB) bool {
	if !head.Idle {
		c.counter = 0
		c.hasHead = false
		return false
	}
	switch {
	case !c.hasHead:
		c.headOffset = head.Offset
		c.hasHead = true
		c.counter = 1
	case c.headOffset == head.Offset:
		c.counter++
	default:
		c.counter = 0
	}
	if c.counter >= c.required {
		c.counter = 0
		return true
	}
	return false
}

// GetCounter returns the current consecutive-match counter, exposed for
// tests that assert on the internal streak.
func (c *Checker) GetCounter() int {
	return c.counter
}
