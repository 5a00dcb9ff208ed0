package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/victorarias/qaweave/agentic/loop"
	"github.com/victorarias/qaweave/agentic/verdict"
)

const (
	exitPass  = 0
	exitFail  = 1
	exitError = 2
)

// writeReport prints the run outcome and returns the process exit code for it.
func writeReport(w io.Writer, res loop.Result, v verdict.Verdict, reported bool) int {
	fmt.Fprintf(w, "run %s: %d turns, stopped: %s\n", res.RunID, res.Turns, res.StopReason)
	fmt.Fprintf(w, "tokens: %s in, %s out\n", humanize.Comma(int64(res.Usage.Input)), humanize.Comma(int64(res.Usage.Output)))
	if n := len(res.Trims); n > 0 {
		fmt.Fprintf(w, "context: %s\n", res.Trims[n-1].Summary())
	}
	if res.Reply != "" {
		fmt.Fprintf(w, "\n%s\n\n", res.Reply)
	}
	if !reported {
		fmt.Fprintln(w, "verdict: FAIL (no verdict reported)")
		return exitFail
	}
	fmt.Fprintf(w, "verdict: %s: %s\n", v.Status, v.Reason)
	if v.Passed() {
		return exitPass
	}
	return exitFail
}
