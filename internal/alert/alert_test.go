package alert

import (
	"context"
	"testing"
	"time"

	"pos_client/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertFansOutToAllChannels(t *testing.T) {
	manager := NewManager(logging.NewNop())

	first := make(chan Payload, 1)
	second := make(chan Payload, 1)
	manager.AddChannel(&FuncChannel{ChannelName: "first", Fn: func(p Payload) { first <- p }})
	manager.AddChannel(&FuncChannel{ChannelName: "second", Fn: func(p Payload) { second <- p }})

	manager.Alert(context.Background(), "Title", "message", Warning, map[string]string{"k": "v"})

	for _, ch := range []chan Payload{first, second} {
		select {
		case p := <-ch:
			assert.Equal(t, "Title", p.Title)
			assert.Equal(t, Warning, p.Level)
			assert.Equal(t, "v", p.Fields["k"])
			assert.False(t, p.Timestamp.IsZero())
		case <-time.After(2 * time.Second):
			t.Fatal("alert did not reach channel")
		}
	}
}

func TestAlertWithNoChannelsDoesNotBlock(t *testing.T) {
	manager := NewManager(logging.NewNop())
	manager.Alert(context.Background(), "Title", "message", Info, nil)
}

func TestFuncChannelName(t *testing.T) {
	require.Equal(t, "func", (&FuncChannel{}).Name())
	require.Equal(t, "custom", (&FuncChannel{ChannelName: "custom"}).Name())
}

func TestLogChannelSend(t *testing.T) {
	ch := NewLogChannel(logging.NewNop())
	for _, level := range []Level{Info, Warning, Error, Critical} {
		assert.NoError(t, ch.Send(context.Background(), Payload{Level: level, Title: "t", Message: "m"}))
	}
}
