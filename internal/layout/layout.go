package layout

// Layout maps a Width x Height matrix onto a single strip. Row 0 starts at
// LED 0; with Serpentine set, every odd row runs right to left, the way a
// strip folded back and forth is usually wired.
type Layout struct {
	Width      int
	Height     int
	Serpentine bool
}

// Index maps x,y -> linear LED index (0..N-1), or -1 outside the matrix.
func (l Layout) Index(x, y int) int {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return -1
	}
	if l.Serpentine && y%2 == 1 {
		x = l.Width - 1 - x
	}
	return y*l.Width + x
}

// XY is the inverse of Index.
func (l Layout) XY(i int) (x, y int, ok bool) {
	if i < 0 || i >= l.Count() {
		return 0, 0, false
	}
	y = i / l.Width
	x = i % l.Width
	if l.Serpentine && y%2 == 1 {
		x = l.Width - 1 - x
	}
	return x, y, true
}

func (l Layout) Count() int {
	return l.Width * l.Height
}
