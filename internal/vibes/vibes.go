// package vibes implements mood classification for tracks.
//
// Classification is a total function: a deterministic rule table over audio
// features and genre/title keywords assigns every track a vibe, with
// Unclassified as the fallback bucket. A language model can optionally
// refine the result when the user supplies a prompt.
package vibes

import (
	"strings"

	"github.com/desertthunder/vibepilot/internal/models"
)

// The fixed vibe set. Playlists are named after these.
const (
	VibeChill        models.Vibe = "Chill Vibes"
	VibeSad          models.Vibe = "Sad Bops"
	VibeHype         models.Vibe = "Hype Gym"
	VibeNightDrive   models.Vibe = "Night Drive"
	VibeLoFi         models.Vibe = "Lo-Fi Focus"
	VibeRomantic     models.Vibe = "Romantic Mood"
	VibeUnclassified models.Vibe = "Unclassified"
)

// aliases maps each vibe to lowercase keywords a model response (or genre
// tag) may use to refer to it. Order within a vibe does not matter; vibes
// are checked in Known() order.
var aliases = map[models.Vibe][]string{
	VibeChill:      {"chill", "mellow", "relax"},
	VibeSad:        {"sad", "melancholy", "heartbreak"},
	VibeHype:       {"hype", "gym", "party", "workout", "pump"},
	VibeNightDrive: {"night drive", "late night", "drive"},
	VibeLoFi:       {"lo-fi", "lofi", "focus", "study"},
	VibeRomantic:   {"romantic", "romance", "love"},
}

// Known returns the fixed set of assignable vibes, excluding the fallback.
func Known() []models.Vibe {
	return []models.Vibe{VibeChill, VibeSad, VibeHype, VibeNightDrive, VibeLoFi, VibeRomantic}
}

// All returns every vibe including the Unclassified fallback.
func All() []models.Vibe {
	return append(Known(), VibeUnclassified)
}

// Parse extracts a vibe from free text, permissively.
//
// Matching is case-insensitive and tolerant of surrounding prose: a full
// vibe name or any alias appearing as a substring counts, so a model reply
// like "This feels like a Party vibe!" resolves to Hype Gym. Returns false
// when no known vibe is mentioned.
func Parse(text string) (models.Vibe, bool) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return "", false
	}

	for _, vibe := range Known() {
		if strings.Contains(lowered, strings.ToLower(string(vibe))) {
			return vibe, true
		}
	}

	for _, vibe := range Known() {
		for _, alias := range aliases[vibe] {
			if strings.Contains(lowered, alias) {
				return vibe, true
			}
		}
	}

	return "", false
}

// Rule is one deterministic classification rule. First matching rule wins.
type Rule struct {
	Vibe     models.Vibe
	Features func(f *models.AudioFeatures) bool // nil when the rule is keyword-only
	Keywords []string                           // lowercase genre/title fragments
}

// matches reports whether the rule applies to the track.
func (r Rule) matches(track models.Track) bool {
	if r.Features != nil && track.Features != nil && r.Features(track.Features) {
		return true
	}

	if len(r.Keywords) == 0 {
		return false
	}

	title := strings.ToLower(track.Title)
	for _, keyword := range r.Keywords {
		if strings.Contains(title, keyword) {
			return true
		}
		for _, genre := range track.Genres {
			if strings.Contains(strings.ToLower(genre), keyword) {
				return true
			}
		}
	}

	return false
}

// DefaultRules returns the rule table in evaluation order.
//
// Feature thresholds follow the valence/energy/danceability/tempo heuristics
// the vibe set was designed around; keyword rules catch tracks Spotify has
// no audio analysis for.
func DefaultRules() []Rule {
	return []Rule{
		{
			Vibe:     VibeHype,
			Features: func(f *models.AudioFeatures) bool { return f.Valence > 0.7 && f.Energy > 0.7 },
			Keywords: []string{"metal", "edm", "workout"},
		},
		{
			Vibe:     VibeChill,
			Features: func(f *models.AudioFeatures) bool { return f.Valence > 0.6 && f.Danceability > 0.6 && f.Energy < 0.6 },
			Keywords: []string{"chillout", "downtempo"},
		},
		{
			Vibe:     VibeSad,
			Features: func(f *models.AudioFeatures) bool { return f.Valence < 0.3 && f.Energy < 0.5 },
			Keywords: []string{"sad", "emo"},
		},
		{
			Vibe:     VibeNightDrive,
			Features: func(f *models.AudioFeatures) bool { return f.Tempo >= 100 && f.Tempo <= 130 && f.Energy >= 0.5 },
			Keywords: []string{"synthwave", "darkwave"},
		},
		{
			Vibe:     VibeLoFi,
			Keywords: []string{"lo-fi", "lofi", "chillhop"},
		},
		{
			Vibe:     VibeRomantic,
			Features: func(f *models.AudioFeatures) bool { return f.Valence >= 0.5 && f.Energy < 0.6 },
			Keywords: []string{"r&b", "soul", "bolero"},
		},
	}
}
