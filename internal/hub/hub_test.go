package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub() *Hub {
	return New(1024, 1024, zap.NewNop())
}

func TestSubscribeIsIdempotent(t *testing.T) {
	h := newTestHub()
	c := NewClient("ABCD", nil)

	h.Subscribe("ABCD", c)
	h.Subscribe("ABCD", c)
	assert.Equal(t, 1, h.ClientCount("ABCD"))
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	h := newTestHub()
	c1 := NewClient("ABCD", nil)
	c2 := NewClient("ABCD", nil)
	other := NewClient("EFGH", nil)

	h.Subscribe("ABCD", c1)
	h.Subscribe("ABCD", c2)
	h.Subscribe("EFGH", other)

	h.Publish("ABCD", []byte("hello"))

	for _, c := range []*Client{c1, c2} {
		select {
		case got := <-c.Send:
			assert.Equal(t, "hello", string(got))
		default:
			t.Fatal("subscriber did not receive event")
		}
	}
	select {
	case <-other.Send:
		t.Fatal("event leaked to another session")
	default:
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	h := newTestHub()
	slow := NewClient("ABCD", nil)
	h.Subscribe("ABCD", slow)

	// Fill the buffer and one more; the overflow is dropped, the publish
	// neither blocks nor fails.
	for i := 0; i <= sendBuffer; i++ {
		h.Publish("ABCD", []byte("x"))
	}
	assert.Len(t, slow.Send, sendBuffer)
}

func TestUnsubscribe(t *testing.T) {
	h := newTestHub()
	c := NewClient("ABCD", nil)
	h.Subscribe("ABCD", c)

	h.Unsubscribe("ABCD", c)
	assert.Equal(t, 0, h.ClientCount("ABCD"))

	// Send channel closed so the write pump exits.
	_, open := <-c.Send
	assert.False(t, open)

	// Safe on a client that is not a member.
	h.Unsubscribe("ABCD", NewClient("ABCD", nil))
	h.Unsubscribe("XXXX", c)
}

func TestPublishToEmptySessionIsNoop(t *testing.T) {
	h := newTestHub()
	h.Publish("ABCD", []byte("nobody home"))
}

func TestDeliverOnlyReachesTarget(t *testing.T) {
	h := newTestHub()
	c1 := NewClient("ABCD", nil)
	c2 := NewClient("ABCD", nil)
	h.Subscribe("ABCD", c1)
	h.Subscribe("ABCD", c2)

	h.Deliver(c1, []byte("private"))

	select {
	case got := <-c1.Send:
		assert.Equal(t, "private", string(got))
	default:
		t.Fatal("target did not receive delivery")
	}
	select {
	case <-c2.Send:
		t.Fatal("delivery leaked to another client")
	default:
	}
}

func TestCloseSessionDisconnectsEveryone(t *testing.T) {
	h := newTestHub()
	c1 := NewClient("ABCD", nil)
	c2 := NewClient("ABCD", nil)
	h.Subscribe("ABCD", c1)
	h.Subscribe("ABCD", c2)

	h.CloseSession("ABCD")
	require.Equal(t, 0, h.ClientCount("ABCD"))

	for _, c := range []*Client{c1, c2} {
		_, open := <-c.Send
		assert.False(t, open)
	}
}
