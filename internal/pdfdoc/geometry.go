package pdfdoc

// BBox is an axis-aligned box in PDF user space, where Y grows upward: Y is
// the bottom edge of the box.
type BBox struct {
	X float64
	Y float64
	W float64
	H float64
}

// Top returns the visual top edge.
func (b BBox) Top() float64 { return b.Y + b.H }

// Right returns the right edge.
func (b BBox) Right() float64 { return b.X + b.W }

// Union returns the smallest box covering b and o.
func (b BBox) Union(o BBox) BBox {
	x := min(b.X, o.X)
	y := min(b.Y, o.Y)
	right := max(b.Right(), o.Right())
	top := max(b.Top(), o.Top())
	return BBox{X: x, Y: y, W: right - x, H: top - y}
}

// VerticallyInside reports whether b's vertical span lies entirely within
// o's vertical span.
func (b BBox) VerticallyInside(o BBox) bool {
	return b.Y >= o.Y && b.Top() <= o.Top()
}
