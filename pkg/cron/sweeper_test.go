package cron

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sipeed/mpbot/pkg/logger"
	"github.com/sipeed/mpbot/pkg/session"
)

func TestNewSweeperValidation(t *testing.T) {
	store := session.NewMemoryStore()
	log := logger.New(io.Discard, logger.LevelError)

	s, err := NewSweeper(store, "0 * * * *", time.Hour, log)
	assert.NoError(t, err)
	assert.NotNil(t, s)

	_, err = NewSweeper(store, "not a cron expr", time.Hour, log)
	assert.Error(t, err)

	_, err = NewSweeper(store, "0 * * * *", 0, log)
	assert.Error(t, err)
}
