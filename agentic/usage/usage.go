package usage

// Usage captures token usage reported by the model provider.
type Usage struct {
	Input  int
	Output int
	Total  int
}

// StopReason describes why a generation stopped.
type StopReason string

const (
	StopReasonMaxTokens StopReason = "max_tokens"
	StopReasonStop      StopReason = "stop"
	StopReasonTool      StopReason = "tool"
	StopReasonError     StopReason = "error"
	StopReasonAbort     StopReason = "abort"
	// StopReasonTurnLimit ends a run that used every allowed turn.
	StopReasonTurnLimit StopReason = "turn_limit"
)

// Normalize fills Total when missing.
func Normalize(u Usage) Usage {
	if u.Total == 0 {
		u.Total = u.Input + u.Output
	}
	return u
}

// Add returns the sum of u and other, both normalized first.
func (u Usage) Add(other Usage) Usage {
	u = Normalize(u)
	other = Normalize(other)
	return Usage{
		Input:  u.Input + other.Input,
		Output: u.Output + other.Output,
		Total:  u.Total + other.Total,
	}
}
