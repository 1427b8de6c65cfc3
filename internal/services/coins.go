package services

// Coin values accepted by the machine, in ascending order.
var denominations = []int{5, 10, 20, 50, 100}

func IsValidDenomination(amount int) bool {
	for _, d := range denominations {
		if amount == d {
			return true
		}
	}
	return false
}

func Denominations() []int {
	out := make([]int, len(denominations))
	copy(out, denominations)
	return out
}
