// Package rpc implements the JSON request/response payloads exchanged
// between the coordinator and task managers.
package rpc

import (
	"encoding/json"
	"fmt"
)

// ExecuteRequest asks a task manager to launch an executable with the
// given arguments.
type ExecuteRequest struct {
	ExecutableFile string            `json:"executable_file"`
	Args           map[string]string `json:"args"`
}

// BatchExecuteRequest asks a task manager to launch a batch of
// executions, one per element of BatchArgs.
type BatchExecuteRequest struct {
	BatchArgs []map[string]string `json:"batch_args"`
}

// ResponseCode is either OK or an error carrying a message. It marshals
// as the bare string "OK", or as {"ERR": "message"} for an error -- a
// hand-written MarshalJSON/UnmarshalJSON pair for this tagless wire
// shape.
type ResponseCode struct {
	err string
	ok  bool
}

// OK is the success code. The zero ResponseCode is not OK: it is an
// error code with an empty message.
var OK = ResponseCode{ok: true}

// Err constructs an error ResponseCode carrying msg.
func Err(msg string) ResponseCode {
	return ResponseCode{err: msg}
}

// IsOK reports whether this is the success code.
func (c ResponseCode) IsOK() bool {
	return c.ok
}

// Message returns the error message, or "" for OK.
func (c ResponseCode) Message() string {
	return c.err
}

func (c ResponseCode) MarshalJSON() ([]byte, error) {
	if c.ok {
		return json.Marshal("OK")
	}
	return json.Marshal(map[string]string{"ERR": c.err})
}

func (c *ResponseCode) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if asString != "OK" {
			return fmt.Errorf("rpc: unrecognized ResponseCode string %q", asString)
		}
		*c = OK
		return nil
	}

	var asErr map[string]string
	if err := json.Unmarshal(data, &asErr); err != nil {
		return fmt.Errorf("rpc: ResponseCode is neither \"OK\" nor {\"ERR\": ...}: %w", err)
	}
	msg, ok := asErr["ERR"]
	if !ok {
		return fmt.Errorf("rpc: ResponseCode object missing ERR key")
	}
	*c = Err(msg)
	return nil
}

// StdResponse wraps any payload T with a ResponseCode, the envelope every
// task manager RPC reply uses.
type StdResponse[T any] struct {
	Code ResponseCode `json:"code"`
	Data *T           `json:"data,omitempty"`
}

// NewStdResponse constructs a successful StdResponse wrapping data.
func NewStdResponse[T any](data T) StdResponse[T] {
	return StdResponse[T]{Code: OK, Data: &data}
}

// NewStdErrorResponse constructs a failed StdResponse carrying msg and no
// data.
func NewStdErrorResponse[T any](msg string) StdResponse[T] {
	return StdResponse[T]{Code: Err(msg)}
}
