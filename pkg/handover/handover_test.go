package handover

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkart/rlink-go/pkg/element"
)

func newTestRecord(v int64) *element.Record {
	r := element.NewRecord(element.Schema{element.ColumnTypeInt64})
	w := r.NewWriter()
	_ = w.SetInt64(v)
	return r
}

// TestFIFOPerProducer confirms a single producer handle's records are
// dequeued in the order they were enqueued.
func TestFIFOPerProducer(t *testing.T) {
	h := New("fifo-test", []Tag{{Key: "chain_id", Value: "1"}, {Key: "task_number", Value: "0"}}, 10, 0)

	for i := int64(0); i < 5; i++ {
		h.ProduceAlways(newTestRecord(i))
	}

	for i := int64(0); i < 5; i++ {
		r, err := h.PollNext()
		require.NoError(t, err)
		got, err := r.NewReader().GetInt64(0)
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}

	_, err := h.PollNext()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestPollNextEmpty(t *testing.T) {
	h := New("empty-test", nil, 10, 0)
	_, err := h.PollNext()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestProduceAlwaysBlocksWhenFull(t *testing.T) {
	h := New("full-test", nil, 1, 0)
	h.ProduceAlways(newTestRecord(1))

	produced := make(chan struct{})
	go func() {
		h.ProduceAlways(newTestRecord(2))
		close(produced)
	}()

	select {
	case <-produced:
		t.Fatal("ProduceAlways should have blocked while the channel was full")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := h.PollNext()
	require.NoError(t, err)

	select {
	case <-produced:
	case <-time.After(time.Second):
		t.Fatal("ProduceAlways should have unblocked once a slot freed up")
	}
}

func TestClonedProducerSharesConsumer(t *testing.T) {
	h := New("clone-test", nil, 10, 0)
	clone := h.Clone()

	h.ProduceAlways(newTestRecord(1))
	clone.ProduceAlways(newTestRecord(2))

	r1, err := h.PollNext()
	require.NoError(t, err)
	v1, _ := r1.NewReader().GetInt64(0)
	assert.Equal(t, int64(1), v1)

	r2, err := clone.PollNext()
	require.NoError(t, err)
	v2, _ := r2.NewReader().GetInt64(0)
	assert.Equal(t, int64(2), v2)
}
