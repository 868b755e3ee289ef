package identity

import "strings"

// DefaultCountryCode is prefixed to bare 10-digit numbers. The club's
// players are all on Indian mobile numbers.
const DefaultCountryCode = "91"

// NormalizePhone canonicalizes a phone number to bare digits with a country
// code, so the same player matches across matches regardless of how an
// admin typed the number ("+91 98765 43210", "098765-43210", "9876543210"
// all normalize to "919876543210"). Returns "" when the input has no digits.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	// Drop the STD trunk prefix ("0987...") before applying the country code.
	digits = strings.TrimPrefix(digits, "0")

	if len(digits) == 10 {
		return DefaultCountryCode + digits
	}
	return digits
}

// PlayerRef identifies a player across matches. PlayerID is authoritative
// when the player has a registered record; Phone (normalized) is the
// fallback join key for ad hoc participants added before registration.
type PlayerRef struct {
	PlayerID *int64
	Phone    string
}

// NewPlayerRef builds a PlayerRef with the phone normalized once, at the
// boundary, so downstream joins never re-normalize.
func NewPlayerRef(playerID *int64, rawPhone string) PlayerRef {
	return PlayerRef{PlayerID: playerID, Phone: NormalizePhone(rawPhone)}
}

// Matches reports whether the given line identity belongs to this player.
// PlayerID wins when both sides have one; otherwise it falls back to the
// normalized phone.
func (r PlayerRef) Matches(linePlayerID *int64, linePhone string) bool {
	if r.PlayerID != nil && linePlayerID != nil {
		return *r.PlayerID == *linePlayerID
	}
	return r.Phone != "" && r.Phone == NormalizePhone(linePhone)
}
