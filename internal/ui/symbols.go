package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Upload completed
	SymbolFail     = "✗" // Upload or sample failed
	SymbolPending  = "○" // Waiting for next cycle
	SymbolProgress = "◐" // Speed test in progress
	SymbolSkipped  = "⊘" // Uploads disabled
)
