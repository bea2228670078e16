package monitor

// Budget counts progress notifications against a fixed limit.
// 0 <= Sent <= Limit always holds.
type Budget struct {
	Sent  int
	Limit int
}

// Exhausted reports whether no more progress notifications may be sent.
func (b Budget) Exhausted() bool { return b.Sent >= b.Limit }

// Spend records one notification. It returns false, leaving the budget
// untouched, when the limit has already been reached.
func (b *Budget) Spend() bool {
	if b.Exhausted() {
		return false
	}
	b.Sent++
	return true
}

// Remaining returns how many notifications are left.
func (b Budget) Remaining() int { return b.Limit - b.Sent }
