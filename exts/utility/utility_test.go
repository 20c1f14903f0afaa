package utility

import (
	"errors"
	"testing"
	"time"

	"github.com/EasterCompany/venkatesh-bot/extensions"
	"github.com/EasterCompany/venkatesh-bot/extensions/extensionstest"
	"github.com/EasterCompany/venkatesh-bot/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistered(t *testing.T) {
	for _, p := range []string{"exts.utility.ping", "exts.utility.status"} {
		_, ok := extensions.Default.Lookup(p)
		assert.True(t, ok, p)
	}
}

func TestPing(t *testing.T) {
	h := extensionstest.NewHost(nil)
	h.Ping = 87 * time.Millisecond
	require.NoError(t, setupPing(h))

	h.Invoke("ping")

	msgs := h.Session.Messages("c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "Pong! `87ms`", msgs[0].Content)
	require.NotNil(t, msgs[0].Reference)
	assert.Equal(t, "m1", msgs[0].Reference.MessageID)
}

func TestStatus(t *testing.T) {
	orig := sample
	t.Cleanup(func() { sample = orig })
	sample = func() (system.Snapshot, error) {
		return system.Snapshot{
			CPUPercent:    12.34,
			MemoryPercent: 56.78,
			HostUptime:    3 * time.Hour,
			ProcessUptime: 90 * time.Second,
		}, errors.New("no process info")
	}

	h := extensionstest.NewHost(nil)
	h.Cfg.Colors.Blue = 0x3498db
	require.NoError(t, setupStatus(h))

	h.Invoke("status")

	msgs := h.Session.Messages("c1")
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Embeds, 1)
	embed := msgs[0].Embeds[0]
	assert.Equal(t, "System Status", embed.Title)
	assert.Equal(t, 0x3498db, embed.Color)
	assert.Equal(t, "12.3%", embed.Fields[0].Value)
	assert.Equal(t, "56.8%", embed.Fields[1].Value)
	assert.Equal(t, "3h0m0s", embed.Fields[3].Value)
	assert.Equal(t, "1m30s", embed.Fields[4].Value)
}
