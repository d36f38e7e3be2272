package types

// ScreenSize is the current drawable size in pixels.
type ScreenSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Portrait reports whether the screen is taller than it is wide.
func (s ScreenSize) Portrait() bool {
	return s.Width < s.Height
}
