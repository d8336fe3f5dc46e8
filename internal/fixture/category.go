package fixture

import (
	"fmt"
)

// Category identifies a kind of light fixture.
type Category int

const (
	Uplight Category = iota
	Downlight
	Spotlight
	WallWash
	FloodLight
	GutterMount
	PathLight
	WellLight
	Bollard
	StepLight

	numCategories
)

var categoryNames = [numCategories]string{
	Uplight:     "uplight",
	Downlight:   "downlight",
	Spotlight:   "spotlight",
	WallWash:    "wall_wash",
	FloodLight:  "flood_light",
	GutterMount: "gutter_mount",
	PathLight:   "path_light",
	WellLight:   "well_light",
	Bollard:     "bollard",
	StepLight:   "step_light",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, numCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c >= 0 && c < numCategories
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// MountEligible reports whether fixtures of this category may be mounted on
// walls or rooflines, and therefore must sit on a mounting line when placed
// above the first story.
func (c Category) MountEligible() bool {
	switch c {
	case Uplight, Downlight, Spotlight, WallWash, FloodLight, GutterMount:
		return true
	}
	return false
}

// MarshalText encodes the category as its lowercase name.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown fixture category %d", int(c))
	}
	return []byte(categoryNames[c]), nil
}

// UnmarshalText decodes a lowercase category name.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory looks up a category by its lowercase name.
func ParseCategory(name string) (Category, error) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown fixture category %q", name)
}
