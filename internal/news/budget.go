package news

// RunBudget caps provider calls for one run and carries the run-wide
// rate-limited signal. One instance is threaded by pointer through every
// topic's processing so a rate limit detected on one topic is visible to
// the rest of the run. The run is strictly sequential; if topics were ever
// processed concurrently this would need an atomic counter and flag.
type RunBudget struct {
	max         int
	used        int
	rateLimited bool
}

// NewRunBudget creates a budget allowing at most max provider calls.
func NewRunBudget(max int) *RunBudget {
	if max < 0 {
		max = 0
	}
	return &RunBudget{max: max}
}

// Remaining returns how many calls may still be issued this run.
func (b *RunBudget) Remaining() int {
	if b.rateLimited {
		return 0
	}
	return b.max - b.used
}

// Consume records one provider call. It returns false when the budget was
// already exhausted, in which case no call must be issued.
func (b *RunBudget) Consume() bool {
	if b.Remaining() <= 0 {
		return false
	}
	b.used++
	return true
}

// Used returns the number of calls issued so far.
func (b *RunBudget) Used() int {
	return b.used
}

// MarkRateLimited records that the provider signalled quota exhaustion.
// Retrying within the run cannot succeed, so all remaining fetching stops.
func (b *RunBudget) MarkRateLimited() {
	b.rateLimited = true
}

// RateLimited reports whether the run hit the provider's rate limit.
func (b *RunBudget) RateLimited() bool {
	return b.rateLimited
}
