package domain

import "time"

// DisplayType selects how a remote screen renders the room it resolves to.
type DisplayType string

const (
	DisplayTypeViewer  DisplayType = "viewer"
	DisplayTypeStage   DisplayType = "stage"
	DisplayTypeOverlay DisplayType = "overlay"
	DisplayTypeCustom  DisplayType = "custom"
)

func (t DisplayType) Valid() bool {
	switch t {
	case DisplayTypeViewer, DisplayTypeStage, DisplayTypeOverlay, DisplayTypeCustom:
		return true
	}
	return false
}

// RemoteScreen is an unattended display endpoint. It is never given a PIN
// directly; it resolves (OwnerID, ScreenID) on a fixed poll interval and
// attaches as a viewer to whatever room the owner is presenting in.
type RemoteScreen struct {
	OwnerID     string            `json:"ownerId"`
	ScreenID    string            `json:"screenId"`
	Name        string            `json:"name"`
	DisplayType DisplayType       `json:"displayType"`
	Config      map[string]string `json:"config,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}
