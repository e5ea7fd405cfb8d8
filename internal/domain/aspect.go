package domain

import "strings"

// AspectRatio is the user-facing output shape selected in the booth settings.
type AspectRatio string

const (
	Ratio16x9 AspectRatio = "16:9"
	Ratio9x16 AspectRatio = "9:16"
	Ratio3x2  AspectRatio = "3:2"
	Ratio2x3  AspectRatio = "2:3"
	Ratio1x1  AspectRatio = "1:1"
)

// APIAspectRatio is the restricted ratio set accepted by the generation API.
type APIAspectRatio string

const (
	APIRatio16x9 APIAspectRatio = "16:9"
	APIRatio9x16 APIAspectRatio = "9:16"
	APIRatio4x3  APIAspectRatio = "4:3"
	APIRatio3x4  APIAspectRatio = "3:4"
	APIRatio1x1  APIAspectRatio = "1:1"
)

// ParseAspectRatio normalizes free-form settings input. Anything outside the
// supported set falls back to 9:16, the booth's portrait default.
func ParseAspectRatio(s string) AspectRatio {
	switch AspectRatio(strings.TrimSpace(s)) {
	case Ratio16x9:
		return Ratio16x9
	case Ratio9x16:
		return Ratio9x16
	case Ratio3x2:
		return Ratio3x2
	case Ratio2x3:
		return Ratio2x3
	case Ratio1x1:
		return Ratio1x1
	default:
		return Ratio9x16
	}
}

// APIRatio maps the output ratio to the nearest ratio the generation API
// accepts. 3:2 and 2:3 have no API equivalent, so they round to 4:3 and 3:4;
// the compositor crops the result back to the requested shape afterwards.
// Total: unknown input maps to 9:16, never an error.
func (r AspectRatio) APIRatio() APIAspectRatio {
	switch r {
	case Ratio16x9:
		return APIRatio16x9
	case Ratio9x16:
		return APIRatio9x16
	case Ratio3x2:
		return APIRatio4x3
	case Ratio2x3:
		return APIRatio3x4
	case Ratio1x1:
		return APIRatio1x1
	default:
		return APIRatio9x16
	}
}

// CompositeTarget is the pixel resolution and CSS-style display ratio the
// compositor renders into.
type CompositeTarget struct {
	Width   int
	Height  int
	Display string
}

// CompositeTarget resolves the fixed output resolution for the ratio.
// Ratios without an entry (including 1:1) keep the 1080x1920 portrait canvas.
func (r AspectRatio) CompositeTarget() CompositeTarget {
	switch r {
	case Ratio16x9:
		return CompositeTarget{Width: 1920, Height: 1080, Display: "16/9"}
	case Ratio9x16:
		return CompositeTarget{Width: 1080, Height: 1920, Display: "9/16"}
	case Ratio3x2:
		return CompositeTarget{Width: 1800, Height: 1200, Display: "3/2"}
	case Ratio2x3:
		return CompositeTarget{Width: 1200, Height: 1800, Display: "2/3"}
	default:
		return CompositeTarget{Width: 1080, Height: 1920, Display: "9/16"}
	}
}
