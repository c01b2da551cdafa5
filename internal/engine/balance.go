package engine

// Balance holds the running totals of both pans, in grams.
type Balance struct {
	Left  int
	Right int
}

func (b Balance) Place(side Side, weight int) Balance {
	if side == SideLeft {
		b.Left += weight
	} else {
		b.Right += weight
	}
	return b
}

func (b Balance) Diff() int {
	if b.Left > b.Right {
		return b.Left - b.Right
	}
	return b.Right - b.Left
}

// Outcome names the lighter pan, which is the one that stays up.
func (b Balance) Outcome() Outcome {
	switch {
	case b.Left == b.Right:
		return OutcomeTie
	case b.Left < b.Right:
		return OutcomeLeft
	default:
		return OutcomeRight
	}
}
