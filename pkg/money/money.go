// Package money normalizes heterogeneous price text fragments into an
// integer subunit amount (cents).
package money

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Cents is a price in the smallest currency denomination.
type Cents int64

// Invalid is the not-a-number sentinel returned when price text cannot be
// normalized. Callers must treat it as extraction failure for the feature.
const Invalid Cents = -1

// SubunitsPerUnit is the scale between whole units and subunits.
const SubunitsPerUnit = 100

// Valid reports whether c holds a parsed amount rather than the sentinel.
func (c Cents) Valid() bool {
	return c >= 0
}

// String renders the amount as a dollar string, e.g. 1099 -> "$10.99".
// The sentinel renders as "NaN".
func (c Cents) String() string {
	if !c.Valid() {
		return "NaN"
	}
	return fmt.Sprintf("$%d.%02d", c/SubunitsPerUnit, c%SubunitsPerUnit)
}

// Parse normalizes one or more price text fragments into Cents.
//
// Each token is split on "." and "$"; fragments carrying a digit become
// numeric groups after non-digit characters are stripped. A token that
// carries no digit at all still counts as one (unparseable) group, so
// ["$", "10", "99"] is three groups and therefore Invalid. Exactly one
// numeric group is read as whole units; exactly two groups are read as
// units plus a literal subunit fragment. Any other count yields Invalid.
//
// The two-group form does not zero-pad: Parse(["$10", "5"]) is 1005, not
// 1050. Sibling DOM nodes split dollars and cents this way and stored
// history depends on the literal behavior, so it is preserved as-is.
func Parse(tokens []string) Cents {
	var (
		groups   []int64
		poisoned bool
	)

	for _, token := range tokens {
		found := false
		for _, frag := range splitFragments(token) {
			digits := keepDigits(frag)
			if digits == "" {
				continue
			}
			n, err := strconv.ParseInt(digits, 10, 64)
			if err != nil {
				return Invalid
			}
			groups = append(groups, n)
			found = true
		}
		if !found {
			// Digit-free tokens occupy a group slot without a value.
			groups = append(groups, 0)
			poisoned = true
		}
	}

	if poisoned || len(groups) < 1 || len(groups) > 2 {
		return Invalid
	}

	if len(groups) == 1 {
		return Cents(groups[0] * SubunitsPerUnit)
	}
	return Cents(groups[0]*SubunitsPerUnit + groups[1])
}

func splitFragments(token string) []string {
	return strings.FieldsFunc(token, func(r rune) bool {
		return r == '.' || r == '$'
	})
}

func keepDigits(s string) string {
	var b strings.Builder
	hasDigit := false
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
			hasDigit = true
		}
	}
	if !hasDigit {
		return ""
	}
	return b.String()
}
