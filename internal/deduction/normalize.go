// Package deduction converts imported bar sales into ounces poured and removes them from
// bottle-counted inventory.
package deduction

import "strings"

// Normalize lower-cases s, trims it and collapses inner whitespace runs to one space.
// Every name comparison in this package goes through it.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
