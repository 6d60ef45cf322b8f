package geom

// Wrap maps any integer index onto [0, length). It returns 0 for a
// non-positive length.
func Wrap(index, length int) int {
	if length <= 0 {
		return 0
	}
	index %= length
	if index < 0 {
		index += length
	}
	return index
}

// Advance moves index by delta steps around a closed loop of the given
// length. When reverse is set the direction of travel is flipped, so a
// positive delta walks towards lower indices. The result is always in
// [0, length).
func Advance(index, delta, length int, reverse bool) int {
	if reverse {
		delta = -delta
	}
	return Wrap(index+delta, length)
}

// Next and Prev are the one-step cases of Advance.
func Next(index, length int) int { return Wrap(index+1, length) }

func Prev(index, length int) int { return Wrap(index-1, length) }

// Crossed reports whether a move from prev to cur of at most window steps
// on a closed loop of the given length passed the start line. Forward travel
// crosses on the length-1 -> 0 seam; reverse travel crosses on 0 -> length-1.
func Crossed(prev, cur, length, window int, reverse bool) bool {
	if length <= 0 || prev == cur {
		return false
	}
	if reverse {
		step := Wrap(prev-cur, length)
		return step <= window && cur > prev
	}
	step := Wrap(cur-prev, length)
	return step <= window && cur < prev
}
