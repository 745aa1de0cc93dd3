package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusPreparing.Terminal())
	assert.False(t, StatusReady.Terminal())
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestStatusNext(t *testing.T) {
	cases := []struct {
		from Status
		want Status
		ok   bool
	}{
		{StatusPending, StatusPreparing, true},
		{StatusPreparing, StatusReady, true},
		{StatusReady, StatusDelivered, true},
		{StatusDelivered, "", false},
		{StatusCancelled, "", false},
	}
	for _, c := range cases {
		got, ok := c.from.Next()
		assert.Equal(t, c.ok, ok, "from %s", c.from)
		assert.Equal(t, c.want, got, "from %s", c.from)
	}
}

func TestStatusKnown(t *testing.T) {
	assert.True(t, StatusReady.Known())
	assert.False(t, Status("BURNT").Known())
}
