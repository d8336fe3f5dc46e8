package geometry

// ProjectOntoSegment projects p onto the segment a-b. The parametric
// position t is clamped to [0, 1], so the returned point always lies on the
// segment. A degenerate segment projects everything onto a.
func ProjectOntoSegment(p, a, b Point2D) (proj Point2D, t, dist float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy

	if lenSq > 0 {
		t = ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
		t = Clamp(t, 0, 1)
	}

	proj = Point2D{X: a.X + t*dx, Y: a.Y + t*dy}
	return proj, t, p.Distance(proj)
}
