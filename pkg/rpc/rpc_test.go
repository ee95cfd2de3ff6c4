package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseCodeOKRoundTrip(t *testing.T) {
	data, err := json.Marshal(OK)
	require.NoError(t, err)
	assert.JSONEq(t, `"OK"`, string(data))

	var c ResponseCode
	require.NoError(t, json.Unmarshal(data, &c))
	assert.True(t, c.IsOK())
}

func TestResponseCodeErrRoundTrip(t *testing.T) {
	orig := Err("boom")
	data, err := json.Marshal(orig)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ERR":"boom"}`, string(data))

	var c ResponseCode
	require.NoError(t, json.Unmarshal(data, &c))
	assert.False(t, c.IsOK())
	assert.Equal(t, "boom", c.Message())
}

func TestStdResponseRoundTrip(t *testing.T) {
	resp := NewStdResponse(ExecuteRequest{ExecutableFile: "job.sh", Args: map[string]string{"x": "1"}})
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded StdResponse[ExecuteRequest]
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Code.IsOK())
	require.NotNil(t, decoded.Data)
	assert.Equal(t, "job.sh", decoded.Data.ExecutableFile)
}

func TestStdErrorResponseHasNoData(t *testing.T) {
	resp := NewStdErrorResponse[ExecuteRequest]("not found")
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded StdResponse[ExecuteRequest]
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.False(t, decoded.Code.IsOK())
	assert.Equal(t, "not found", decoded.Code.Message())
	assert.Nil(t, decoded.Data)
}
