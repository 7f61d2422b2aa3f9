package apa102

// Channel indexes into an Order.
const (
	Red   = 0
	Green = 1
	Blue  = 2
)

// Order holds, for red, green and blue, the byte offset of that channel inside
// a 4 byte LED frame. Offsets are 1, 2 or 3; offset 0 is the header.
type Order [3]uint8

// DefaultOrder is what an "RGB" order string yields: the wire carries blue,
// green, red after the header.
var DefaultOrder = Order{Red: 3, Green: 2, Blue: 1}

// ParseOrder reads the first three characters of s, case-insensitively. The
// character at position i gets offset 3-i. Anything that does not name red,
// green and blue exactly once yields DefaultOrder.
func ParseOrder(s string) Order {
	var o Order
	var counts [3]int
	for i := 0; i < 3 && i < len(s); i++ {
		ch := -1
		switch s[i] {
		case 'r', 'R':
			ch = Red
		case 'g', 'G':
			ch = Green
		case 'b', 'B':
			ch = Blue
		}
		if ch < 0 {
			continue
		}
		o[ch] = uint8(3 - i)
		counts[ch]++
	}
	if counts != [3]int{1, 1, 1} {
		return DefaultOrder
	}
	return o
}

// String rebuilds the order string, e.g. "RGB" or "GRB".
func (o Order) String() string {
	b := []byte("???")
	names := [3]byte{'R', 'G', 'B'}
	for ch, off := range o {
		if off >= 1 && off <= 3 {
			b[3-off] = names[ch]
		}
	}
	return string(b)
}

// Valid reports whether every channel has a distinct offset in 1..3.
func (o Order) Valid() bool {
	seen := [4]bool{}
	for _, off := range o {
		if off < 1 || off > 3 || seen[off] {
			return false
		}
		seen[off] = true
	}
	return true
}
