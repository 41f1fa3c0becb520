package ui

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
)

type SpinnerCfg struct {
	Message  string
	Tokens   []string
	Duration time.Duration
}

// Dots is the default spinner.
var Dots = spinner.CharSets[14]

var s *spinner.Spinner

// StartSpinner shows progress on stderr so stdout stays pipeable. It is a
// no-op when stderr is not a terminal.
func StartSpinner(cfg *SpinnerCfg) {
	if !IsTerminal(os.Stderr) {
		return
	}
	if cfg.Tokens == nil {
		cfg.Tokens = Dots
	}
	if cfg.Duration == 0 {
		cfg.Duration = 100 * time.Millisecond
	}
	s = spinner.New(cfg.Tokens, cfg.Duration)
	s.Writer = os.Stderr

	if cfg.Message != "" {
		s.Suffix = " " + cfg.Message
	}

	s.Start()
}

func StopSpinner(msg string) {
	if s == nil {
		return
	}
	if msg != "" {
		s.FinalMSG = msg + "\n"
	}

	s.Stop()
	s = nil
}
