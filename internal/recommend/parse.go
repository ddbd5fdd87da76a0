package recommend

import "strings"

// similarSeparator joins track and artist in the metadata provider's
// similar-track strings.
const similarSeparator = " by "

// ParseSimilarTrack splits a "<name> by <artist>" string into its parts.
// Strings that do not split into exactly two parts are rejected; this
// matches the provider format but breaks on artist names containing
// " by ", which callers tolerate by skipping.
func ParseSimilarTrack(s string) (name, artist string, ok bool) {
	parts := strings.Split(s, similarSeparator)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
