package polyvox

import (
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger builds the logger the synthesizer defaults to, with the
// level names Config.LogLevel accepts. Unknown levels fall back to
// info.
func NewLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "polyvox",
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}
