// Package difficulty decides whether a problem rating is a useful stretch for a user.
package difficulty

// DefaultWindow is the half-width, in rating points, of the optimal band.
const DefaultWindow Window = 200

// Window is the maximum distance between problem and user rating that still
// counts as optimal practice.
type Window int

// Contains reports whether problemRating lies within w of userRating.
// Unrated problems (0) are never contained.
func (w Window) Contains(problemRating, userRating int) bool {
	if problemRating == 0 {
		return false
	}
	d := problemRating - userRating
	if d < 0 {
		d = -d
	}
	return d <= int(w)
}

// IsOptimal uses DefaultWindow.
func IsOptimal(problemRating, userRating int) bool {
	return DefaultWindow.Contains(problemRating, userRating)
}
