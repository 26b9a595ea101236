package progress

import (
	"math"
	"math/bits"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
)

const (
	// Scale is the number of ticks in a complete ruler.
	Scale = 40

	// labelEvery is the tick spacing between decade labels.
	labelEvery = 4

	// DefaultFiller is drawn at every tick that carries no label.
	DefaultFiller = "."
)

// Label returns the glyph drawn at tick position i: the decade number
// (i/4)*10 every fourth tick, otherwise filler.
func Label(i int, filler string) string {
	if i%labelEvery == 0 {
		return strconv.Itoa((i / labelEvery) * 10)
	}
	return filler
}

// Ruler returns the text drawn for tick, covering positions [0, tick).
// A tick of zero or less yields an empty ruler.
//
//	Ruler(9, ".") == "0...10...20"
func Ruler(tick int, filler string) string {
	var b strings.Builder
	for i := 0; i < tick; i++ {
		b.WriteString(Label(i, filler))
	}
	return b.String()
}

// RulerWidth returns the number of terminal columns Ruler(tick, filler)
// occupies.
func RulerWidth(tick int, filler string) int {
	return uniseg.StringWidth(Ruler(tick, filler))
}

// tickFor maps count out of total onto the ruler scale. total must be
// positive and count non-negative. The product count*Scale is taken in
// 128 bits so totals near MaxInt64 still floor correctly.
func tickFor(count, total int64, overflow OverflowPolicy) int {
	hi, lo := bits.Mul64(uint64(count), Scale)
	tick := uint64(math.MaxInt)
	if hi < uint64(total) {
		tick, _ = bits.Div64(hi, lo, uint64(total))
	}
	if overflow == OverflowClamp && tick > Scale {
		return Scale
	}
	if tick > math.MaxInt {
		return math.MaxInt
	}
	return int(tick)
}
