package geometry

// OutsideTolerance is how far (in percent of the image) a pointer may land
// outside the image before it is treated as "no position".
const OutsideTolerance = 2.0

// Letterbox returns the rectangle an image with the given aspect ratio
// (width/height) occupies when fit, centered, inside container. The image is
// fit by width when it is relatively wider than the container and by height
// otherwise.
func Letterbox(container Rect, imageAspect float64) (Rect, bool) {
	if !container.Valid() || !finite(imageAspect) || imageAspect <= 0 {
		return Rect{}, false
	}

	containerAspect := container.Width / container.Height
	if imageAspect > containerAspect {
		h := container.Width / imageAspect
		return Rect{
			X:      container.X,
			Y:      container.Y + (container.Height-h)/2,
			Width:  container.Width,
			Height: h,
		}, true
	}

	w := container.Height * imageAspect
	return Rect{
		X:      container.X + (container.Width-w)/2,
		Y:      container.Y,
		Width:  w,
		Height: container.Height,
	}, true
}

// ScreenToImagePercent converts a pointer position into image-relative
// percent coordinates (0-100). It returns false when the inputs are invalid
// or the pointer lies more than OutsideTolerance percent outside the image.
func ScreenToImagePercent(px, py float64, container Rect, imageAspect float64) (Point2D, bool) {
	if !finite(px) || !finite(py) {
		return Point2D{}, false
	}
	img, ok := Letterbox(container, imageAspect)
	if !ok {
		return Point2D{}, false
	}

	x := (px - img.X) / img.Width * 100
	y := (py - img.Y) / img.Height * 100

	if x < -OutsideTolerance || x > 100+OutsideTolerance ||
		y < -OutsideTolerance || y > 100+OutsideTolerance {
		return Point2D{}, false
	}

	return Point2D{X: Clamp(x, 0, 100), Y: Clamp(y, 0, 100)}, true
}

// ImagePercentToScreen is the inverse of ScreenToImagePercent for points
// inside the image.
func ImagePercentToScreen(p Point2D, container Rect, imageAspect float64) (Point2D, bool) {
	img, ok := Letterbox(container, imageAspect)
	if !ok {
		return Point2D{}, false
	}
	return Point2D{
		X: img.X + p.X/100*img.Width,
		Y: img.Y + p.Y/100*img.Height,
	}, true
}

// PercentToPixels converts percent coordinates to pixel coordinates of an
// image with the given size.
func PercentToPixels(p Point2D, width, height int) Point2D {
	return Point2D{X: p.X / 100 * float64(width), Y: p.Y / 100 * float64(height)}
}
