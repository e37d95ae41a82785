package numerology

import (
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"amethyst", "Amethyst", 3},
		{"quartz", "Quartz", 4},
		{"jasper", "Jasper", 6},
		{"uppercase matches lowercase", "AMETHYST", 3},
		{"no letters", "123 !?-", 0},
		{"spaces and punctuation ignored", "Rose Quartz!", NameToNumber("rosequartz")},
		{"non-ascii letters ignored", "Ärä", 9},
		{"single letter", "i", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NameToNumber(tt.in))
		})
	}
}

func TestNameToNumber_RangeAndDeterminism(t *testing.T) {
	inputs := []string{"", "a", "Moonstone", "Labradorite", strings.Repeat("zzzz", 100), "Tiger's Eye"}
	for _, in := range inputs {
		first := NameToNumber(in)
		assert.GreaterOrEqual(t, first, 0, in)
		assert.LessOrEqual(t, first, 9, in)
		for range 5 {
			assert.Equal(t, first, NameToNumber(in), in)
		}
	}
}

func TestNameToNumber_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 3, NameToNumber("Amethyst"))
		}()
	}
	wg.Wait()
}

func TestNameToNumber_ReducesLongSums(t *testing.T) {
	// "iiiii" sums to 45 -> 9.
	assert.Equal(t, 9, NameToNumber("iiiii"))
	// "iiiia" sums to 37 -> 10 -> 1.
	assert.Equal(t, 1, NameToNumber("iiiia"))
	// "iib" sums to 20 -> 2.
	assert.Equal(t, 2, NameToNumber("iib"))
	// "ib" sums to 11, which is reduced rather than kept as a master number.
	assert.Equal(t, 2, NameToNumber("ib"))
}

func TestReduce(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 0},
		{7, 7},
		{9, 9},
		{10, 1},
		{11, 2},
		{22, 4},
		{33, 6},
		{37, 1},
		{45, 9},
		{999, 9},
		{-14, 5},
		{math.MaxInt64, 7},
		{math.MinInt64, 8},
		{math.MinInt64 + 1, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Reduce(tt.in), "Reduce(%d)", tt.in)
	}
}

func TestMasterNumber(t *testing.T) {
	tests := []struct {
		name                 string
		nameN, color, chakra int
		want                 int
	}{
		{"14 mod 9", 3, 5, 6, 5},
		{"no color vibration", 6, 0, 1, 7},
		{"zero remainder promoted", 3, 0, 6, 9},
		{"missing name number", 0, 5, 6, 0},
		{"missing chakra number", 3, 5, 0, 0},
		{"all nines", 9, 9, 9, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MasterNumber(tt.nameN, tt.color, tt.chakra))
		})
	}
}
