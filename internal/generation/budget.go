package generation

// DefaultMaxTokens is the draft budget when none is configured.
const DefaultMaxTokens = 4096

// estimateHeadroom pads a recorded usage estimate so a typical draft is not truncated.
const estimateHeadroom = 1.25

// NextMaxTokens returns the budget for the next attempt: doubled after a truncated response
// and capped at limit, unchanged otherwise.
func NextMaxTokens(current int, truncated bool, limit int) int {
	if current <= 0 {
		current = DefaultMaxTokens
	}
	if truncated {
		current *= 2
	}
	if limit > 0 && current > limit {
		current = limit
	}
	return current
}

// InitialMaxTokens picks the first attempt's budget: the configured value, raised to the
// padded estimate of earlier drafts of the same kind when one is known, capped at limit.
func InitialMaxTokens(configured, estimate int, known bool, limit int) int {
	budget := configured
	if budget <= 0 {
		budget = DefaultMaxTokens
	}
	if known && estimate > 0 {
		if padded := int(float64(estimate) * estimateHeadroom); padded > budget {
			budget = padded
		}
	}
	if limit > 0 && budget > limit {
		budget = limit
	}
	return budget
}
