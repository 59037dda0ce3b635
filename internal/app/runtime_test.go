package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestModeFlag(t *testing.T) {
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "false")
	RefreshTestMode()
	assert.False(t, InTestMode())

	t.Setenv(testModeEnv, "true")
	RefreshTestMode()
	assert.True(t, InTestMode())
}
