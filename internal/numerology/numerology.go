// Package numerology implements the Pythagorean letter-to-digit mapping used to
// derive a crystal's name number and the combined master number.
package numerology

import "strings"

// letterValues holds the Pythagorean value of each letter a..z.
var letterValues = [26]int{
	1, 2, 3, 4, 5, 6, 7, 8, 9, // a-i
	1, 2, 3, 4, 5, 6, 7, 8, 9, // j-r
	1, 2, 3, 4, 5, 6, 7, 8, // s-z
}

// NameToNumber sums the letter values of name and reduces the total to a single
// digit. Runes outside a-z contribute nothing, so an empty name or one without
// letters yields 0.
func NameToNumber(name string) int {
	total := 0
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' {
			total += letterValues[r-'a']
		}
	}
	return Reduce(total)
}

// Reduce replaces n with the sum of its decimal digits until it is at most 9.
// Unlike traditional numerology, 11, 22 and 33 are reduced as well. The sign
// of n is ignored and every int, including math.MinInt64, reduces to 0..9.
func Reduce(n int) int {
	if n == 0 {
		return 0
	}
	u := uint64(n)
	if n < 0 {
		u = -u
	}
	return int(1 + (u-1)%9)
}

// MasterNumber combines the three numerology components as
// (name + color + chakra) mod 9, where a zero remainder becomes 9.
// It returns 0 when nameNumber or chakraNumber is 0: there is not enough
// information to derive one.
func MasterNumber(nameNumber, colorVibration, chakraNumber int) int {
	if nameNumber == 0 || chakraNumber == 0 {
		return 0
	}
	m := (nameNumber + colorVibration + chakraNumber) % 9
	if m < 0 {
		m += 9
	}
	if m == 0 {
		return 9
	}
	return m
}
