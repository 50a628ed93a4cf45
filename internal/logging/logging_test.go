package logging

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetup(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	Setup("debug", true)
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	_, ok := log.StandardLogger().Formatter.(*log.JSONFormatter)
	assert.True(t, ok)

	Setup("nonsense", false)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
	_, ok = log.StandardLogger().Formatter.(*log.TextFormatter)
	assert.True(t, ok)
}
