// Package domain contains entities without logic, just meta-data.
package domain

// PIN is the short numeric join key of an active room.
type PIN string

// PINDigits is the width of a generated PIN ("042913").
const PINDigits = 6

// DisplayMode tags what kind of content a slide reference points at.
type DisplayMode string

const (
	DisplayModeSong  DisplayMode = "song"
	DisplayModeImage DisplayMode = "image"
	DisplayModeBlank DisplayMode = "blank"
)

// SlideRef identifies the content item currently shown.
// ContentID is a reference into the external song/image catalog and is
// meaningless when IsBlank is set.
type SlideRef struct {
	ContentID   string      `json:"contentId"`
	DisplayMode DisplayMode `json:"displayMode"`
	IsBlank     bool        `json:"isBlank"`
}

// BlankSlide is the sentinel shown before the operator picks anything.
func BlankSlide() SlideRef {
	return SlideRef{DisplayMode: DisplayModeBlank, IsBlank: true}
}

// Snapshot is the full current state of a room, handed to a viewer at
// join time so it renders correctly without waiting for the next delta.
type Snapshot struct {
	PIN        PIN      `json:"pin"`
	Slide      SlideRef `json:"slide"`
	Background string   `json:"background,omitempty"`
	ThemeID    string   `json:"theme,omitempty"`
}
