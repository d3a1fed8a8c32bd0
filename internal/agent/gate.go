// File: internal/agent/gate.go
package agent

// BlockReason explains why the gate refused a decision. Empty means allowed.
type BlockReason string

const (
	BlockTerminalSuccess BlockReason = "terminal_success"
	BlockNoAction        BlockReason = "no_action"
	BlockLowConfidence   BlockReason = "low_confidence"
	BlockLoopDetected    BlockReason = "loop_detected"
	BlockThinkBudget     BlockReason = "think_budget_exhausted"
	BlockRetryBudget     BlockReason = "retry_budget_exhausted"
	BlockLoopBudget      BlockReason = "loop_budget_exhausted"
)

// GateDecision runs a decision through the terminal-success, confidence,
// loop and budget checks, in that order. It returns the action to execute,
// or nil with the reason it was blocked. Memory is updated in place.
func GateDecision(d Decision, m *Memory) (*Action, BlockReason) {
	// A confirmed form is never submitted again.
	if d.Action != nil && d.Action.IsSubmit() && m.LastConfirmedAction != nil &&
		m.LastConfirmedAction.Kind == ActionFormSubmitted &&
		m.LastConfirmedAction.FormID == d.Action.FormID {
		return nil, BlockTerminalSuccess
	}

	if d.Action == nil {
		return nil, BlockNoAction
	}
	action := *d.Action

	if d.Confidence < MinConfidence {
		return nil, BlockLowConfidence
	}

	repeat := m.LastAction != nil && m.LastAction.Equal(action)
	if m.LastAction != nil {
		if repeat {
			m.LoopBudget = saturatingDec(m.LoopBudget)
			if m.LoopBudget == 0 {
				m.Suppress(action.Identity)
				return nil, BlockLoopDetected
			}
		} else {
			m.LoopBudget = MaxLoopRepeats
		}
	}

	if reason := CheckBudgets(m, action); reason != "" {
		return nil, reason
	}

	m.ThinkBudget = saturatingDec(m.ThinkBudget)
	if repeat {
		m.RetryBudget = saturatingDec(m.RetryBudget)
	} else {
		m.RetryBudget = MaxRetries
	}
	m.LastAction = &action
	return &action, ""
}

// CheckBudgets requires think, retry (for a repeated action) and loop
// budgets to be nonzero.
func CheckBudgets(m *Memory, proposed Action) BlockReason {
	if m.ThinkBudget == 0 {
		return BlockThinkBudget
	}
	if m.LastAction != nil && m.LastAction.Equal(proposed) && m.RetryBudget == 0 {
		return BlockRetryBudget
	}
	if m.LoopBudget == 0 {
		return BlockLoopBudget
	}
	return ""
}
