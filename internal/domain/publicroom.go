package domain

import (
	"regexp"
	"strings"
	"time"
)

// PublicRoom is a named, owner-scoped alias that resolves to whichever
// PIN its owner is currently presenting under. Slugs are unique within
// one owner's set, not globally.
type PublicRoom struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	ActivePIN   PIN       `json:"activePin,omitempty"`
	ActivatedAt time.Time `json:"activatedAt,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Online reports whether the owner is currently presenting under this alias.
func (p PublicRoom) Online() bool { return p.ActivePIN != "" }

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Slugify derives the lookup slug from a public room name. The creator
// preview and the resolution lookup both go through this exact function,
// so the derivation must stay byte-identical: lowercase, strip non-word
// characters, collapse whitespace runs to single hyphens, trim hyphens.
// Order matters; "---Leading/Trailing---" becomes "leadingtrailing".
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = nonWordRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
