package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify_StripCollapseTrimOrder(t *testing.T) {
	req := require.New(t)

	// Punctuation is stripped before whitespace is collapsed.
	req.Equal("solu-israel", Slugify("Solu Israel!"))

	// Whitespace runs collapse to single hyphens, edges trimmed.
	req.Equal("multiple-spaces", Slugify("  multiple   spaces  "))

	// Hyphens and slashes are non-word characters and vanish before
	// collapsing, so nothing separates the halves.
	req.Equal("leadingtrailing", Slugify("---Leading/Trailing---"))
}

func TestSlugify_Deterministic(t *testing.T) {
	req := require.New(t)

	// Creator preview and resolution lookup must agree byte for byte.
	name := "Sunday Evening / Main Hall"
	req.Equal(Slugify(name), Slugify(name))
	req.Equal("sunday-evening-main-hall", Slugify(name))
}

func TestSlugify_AllSpecialYieldsEmpty(t *testing.T) {
	req := require.New(t)

	// The empty result is rejected at creation time by the store, not
	// silently accepted; here only the derivation is pinned down.
	req.Equal("", Slugify("!!! --- ???"))
	req.Equal("", Slugify(""))
}

func TestSlugify_KeepsDigitsAndUnderscores(t *testing.T) {
	req := require.New(t)

	req.Equal("9am-service", Slugify("9AM Service"))
	req.Equal("youth_night", Slugify("Youth_Night"))
}
