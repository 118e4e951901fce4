package testlog

import (
	"testing"

	"github.com/danmuck/amfctl/internal/logging"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	logger := logging.Component("test")
	logger.Info().Str("test", t.Name()).Msg("start")
}
