package context

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// TrimResult reports one trimming decision. It is created per model call and not retained.
type TrimResult struct {
	Strategy StrategyName
	// KeptIndices are the Seq values of kept messages, strictly increasing.
	KeptIndices         []int
	MessagesBefore      int
	MessagesAfter       int
	TokensBefore        int
	TokensAfter         int
	ReductionPercentage float64
	Warnings            []string
}

func newTrimResult(strategy StrategyName, kept []int, messagesBefore, tokensBefore, tokensAfter int, warnings []string) TrimResult {
	if kept == nil {
		kept = []int{}
	}
	return TrimResult{
		Strategy:            strategy,
		KeptIndices:         kept,
		MessagesBefore:      messagesBefore,
		MessagesAfter:       len(kept),
		TokensBefore:        tokensBefore,
		TokensAfter:         tokensAfter,
		ReductionPercentage: reductionPercentage(tokensBefore, tokensAfter),
		Warnings:            warnings,
	}
}

func reductionPercentage(before, after int) float64 {
	if before == 0 {
		return 0
	}
	return float64(before-after) / float64(before) * 100
}

// Dropped returns the number of messages left out of the call.
func (r TrimResult) Dropped() int {
	return r.MessagesBefore - r.MessagesAfter
}

// Summary renders the result on one line for humans.
func (r TrimResult) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: kept %d/%d messages, %s -> %s tokens (%.1f%% reduction)",
		r.Strategy, r.MessagesAfter, r.MessagesBefore,
		humanize.Comma(int64(r.TokensBefore)), humanize.Comma(int64(r.TokensAfter)),
		r.ReductionPercentage)
	for _, w := range r.Warnings {
		sb.WriteString("; warning: ")
		sb.WriteString(w)
	}
	return sb.String()
}

// Fields returns the result as structured log fields.
func (r TrimResult) Fields() logrus.Fields {
	return logrus.Fields{
		"strategy":         string(r.Strategy),
		"messages_before":  r.MessagesBefore,
		"messages_after":   r.MessagesAfter,
		"messages_dropped": r.Dropped(),
		"tokens_before":    r.TokensBefore,
		"tokens_after":     r.TokensAfter,
		"reduction_pct":    fmt.Sprintf("%.1f", r.ReductionPercentage),
	}
}

// Log writes the warnings and the report to logger.
func (r TrimResult) Log(logger logrus.FieldLogger) {
	if logger == nil {
		return
	}
	entry := logger.WithFields(r.Fields())
	for _, w := range r.Warnings {
		entry.Warn(w)
	}
	entry.Info("context trimmed")
}
