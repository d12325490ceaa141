package preview

import (
	"fmt"
	"strings"
)

// ViewportMode names a preset size for the preview container.
type ViewportMode string

const (
	ViewportMobile  ViewportMode = "mobile"
	ViewportTablet  ViewportMode = "tablet"
	ViewportDesktop ViewportMode = "desktop"
)

// Dimensions is the logical size applied to the preview container. Fill
// means "take all available space" and Width/Height are then 100%.
type Dimensions struct {
	Mode   ViewportMode `json:"mode"`
	Label  string       `json:"label"`
	Width  string       `json:"width"`
	Height string       `json:"height"`
	Fill   bool         `json:"fill"`
}

var viewports = []Dimensions{
	{Mode: ViewportMobile, Label: "Mobile", Width: "375px", Height: "667px"},
	{Mode: ViewportTablet, Label: "Tablet", Width: "768px", Height: "1024px"},
	{Mode: ViewportDesktop, Label: "Desktop", Width: "100%", Height: "100%", Fill: true},
}

// Viewports returns the presets in toolbar order.
func Viewports() []Dimensions {
	out := make([]Dimensions, len(viewports))
	copy(out, viewports)
	return out
}

// SizeFor returns the dimensions for mode. Unknown modes get desktop.
func SizeFor(mode ViewportMode) Dimensions {
	for _, d := range viewports {
		if d.Mode == mode {
			return d
		}
	}
	return viewports[len(viewports)-1]
}

// ParseViewport validates a viewport name.
func ParseViewport(s string) (ViewportMode, error) {
	mode := ViewportMode(strings.ToLower(strings.TrimSpace(s)))
	for _, d := range viewports {
		if d.Mode == mode {
			return mode, nil
		}
	}
	return "", fmt.Errorf("unknown viewport %q: must be one of mobile, tablet, desktop", s)
}

// Style renders the dimensions as inline CSS declarations. The container
// never grows past its parent.
func (d Dimensions) Style() string {
	return fmt.Sprintf("width: %s; height: %s; max-width: 100%%; max-height: 100%%;", d.Width, d.Height)
}
