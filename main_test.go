package main

import (
	"testing"

	"github.com/EasterCompany/venkatesh-bot/extensions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledExtensionsAreRegistered(t *testing.T) {
	paths, err := extensions.Discover(bundled, "exts")
	require.NoError(t, err)

	assert.Equal(t, []string{"exts.info.about", "exts.utility.ping", "exts.utility.status"}, paths)
	for _, p := range paths {
		_, ok := extensions.Default.Lookup(p)
		assert.True(t, ok, "%s is bundled but not registered", p)
	}
}
