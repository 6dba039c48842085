package cliui

import (
	"fmt"
	"io"
	"time"
)

// SpinnerFrames are the braille frames shared by every spinner in kb.
var SpinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// SpinnerFrame returns frame i, wrapping around, styled.
func SpinnerFrame(i int) string {
	return spinnerStyle.Render(SpinnerFrames[i%len(SpinnerFrames)])
}

const spinInterval = 80 * time.Millisecond

// Step runs fn and reports it as one line ending in a mark and the elapsed
// time. On a terminal the line shows a spinner while fn runs.
func Step(w io.Writer, msg string, fn func() error) error {
	stop := func() {}
	if IsTerminal(w) {
		stop = spin(w, msg)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	stop()

	fmt.Fprintf(w, "\r  %s %s %s\n", Mark(err), msg, StepStyle.Render("("+FormatDuration(elapsed)+")"))
	return err
}

// spin redraws msg behind a spinner until the returned func is called. The
// func returns once the last frame is written.
func spin(w io.Writer, msg string) func() {
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		ticker := time.NewTicker(spinInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			fmt.Fprintf(w, "\r  %s %s", SpinnerFrame(i), msg)
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		close(done)
		<-exited
	}
}
