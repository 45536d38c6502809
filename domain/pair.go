package domain

import "strings"

// pairSeparator never appears in a user id; ids are validated at the
// transport boundary before a PairKey is ever built.
const pairSeparator = "|"

// PairKey identifies the single canonical log shared by both directions of a
// direct thread. The key is order-independent: NewPairKey(a, b) == NewPairKey(b, a).
type PairKey string

func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey(a + pairSeparator + b)
}

// Users returns the two participants of the pair in canonical order.
func (k PairKey) Users() (string, string) {
	parts := strings.SplitN(string(k), pairSeparator, 2)
	if len(parts) != 2 {
		return string(k), ""
	}
	return parts[0], parts[1]
}

// Includes reports whether the given user is one of the pair's participants.
func (k PairKey) Includes(userID string) bool {
	a, b := k.Users()
	return userID == a || userID == b
}
