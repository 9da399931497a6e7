package live

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	messages [][]byte
	fail     bool
	closed   bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	if f.fail {
		return errors.New("broken pipe")
	}
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestBroadcast(t *testing.T) {
	h := NewHub()
	good := &fakeConn{}
	bad := &fakeConn{fail: true}
	h.Register(good, "front-desk")
	h.Register(bad, "bar")

	h.Broadcast(EventSessionStart, map[string]int{"table_id": 3})

	require.Len(t, good.messages, 1)
	var msg Message
	require.NoError(t, json.Unmarshal(good.messages[0], &msg))
	assert.Equal(t, EventSessionStart, msg.Event)

	assert.True(t, bad.closed)
	assert.Equal(t, 1, h.Count())
}

func TestUnregister(t *testing.T) {
	h := NewHub()
	c := &fakeConn{}
	h.Register(c, "x")
	h.Unregister(c)
	assert.True(t, c.closed)
	assert.Equal(t, 0, h.Count())

	h.Broadcast(EventTableUpdate, nil)
	assert.Empty(t, c.messages)
}
