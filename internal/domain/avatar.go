package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// AvatarStyle is a closed set of identicon style tags. The engine never
// interprets avatars; they pass through to the external provider URL.
type AvatarStyle string

const (
	AvatarAdventurer AvatarStyle = "adventurer"
	AvatarAvataaars  AvatarStyle = "avataaars"
	AvatarBottts     AvatarStyle = "bottts"
	AvatarFunEmoji   AvatarStyle = "fun-emoji"
	AvatarIdenticon  AvatarStyle = "identicon"
	AvatarLorelei    AvatarStyle = "lorelei"
	AvatarMicah      AvatarStyle = "micah"
	AvatarMiniavs    AvatarStyle = "miniavs"
	AvatarNotionists AvatarStyle = "notionists"
	AvatarOpenPeeps  AvatarStyle = "open-peeps"
	AvatarPersonas   AvatarStyle = "personas"
	AvatarPixelArt   AvatarStyle = "pixel-art"
)

var avatarStyles = map[AvatarStyle]struct{}{
	AvatarAdventurer: {}, AvatarAvataaars: {}, AvatarBottts: {},
	AvatarFunEmoji: {}, AvatarIdenticon: {}, AvatarLorelei: {},
	AvatarMicah: {}, AvatarMiniavs: {}, AvatarNotionists: {},
	AvatarOpenPeeps: {}, AvatarPersonas: {}, AvatarPixelArt: {},
}

// Valid reports whether the style is one of the known tags.
func (s AvatarStyle) Valid() bool {
	_, ok := avatarStyles[s]
	return ok
}

// Avatar is an opaque descriptor for a player's rendered avatar.
type Avatar struct {
	Style AvatarStyle `json:"style"`
	Seed  string      `json:"seed"`
	Color string      `json:"color,omitempty"` // optional hex, with or without leading #
}

const avatarBaseURL = "https://api.dicebear.com/7.x"

// Older clients appended the hex color to the seed instead of sending it separately.
var seedColorSuffix = regexp.MustCompile(`(?i)-([A-F0-9]{6})$`)

// URL builds the provider URL for the descriptor. A color suffix embedded in
// the seed is stripped and reused when no explicit color is set.
func (a Avatar) URL() string {
	seed := seedColorSuffix.ReplaceAllString(a.Seed, "")
	url := fmt.Sprintf("%s/%s/svg?seed=%s", avatarBaseURL, a.Style, seed)

	color := a.Color
	if color == "" {
		if m := seedColorSuffix.FindStringSubmatch(a.Seed); m != nil {
			color = m[1]
		}
	}
	if color != "" {
		url += "&backgroundColor=" + strings.TrimPrefix(color, "#")
	}
	return url
}
