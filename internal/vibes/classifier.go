package vibes

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/services"
	"github.com/desertthunder/vibepilot/internal/shared"
)

// Classifier assigns a vibe to each track.
//
// The deterministic rule table always runs. When a prompt is supplied and a
// completion client is configured, the model's answer overrides the rule
// result if it names a known vibe; otherwise the deterministic result
// stands. Model failures are never fatal.
type Classifier struct {
	rules     []Rule
	completer services.Completer
	logger    *log.Logger
}

// NewClassifier creates a classifier with the default rule table.
// completer may be nil to disable the refinement path.
func NewClassifier(completer services.Completer, logger *log.Logger) *Classifier {
	return &Classifier{
		rules:     DefaultRules(),
		completer: completer,
		logger:    logger,
	}
}

// Classify maps a track to exactly one vibe. Total: never fails.
func (c *Classifier) Classify(ctx context.Context, track models.Track, prompt string) (models.Vibe, models.Source) {
	vibe, source := c.classifyByRule(track)

	if prompt == "" || c.completer == nil {
		return vibe, source
	}

	refined, err := c.refine(ctx, track, prompt)
	if err != nil {
		if c.logger != nil {
			c.logger.Warnf("model refinement failed for %s, keeping %s: %v", track.ID, vibe, err)
		}
		return vibe, source
	}

	return refined, models.SourceModel
}

// classifyByRule evaluates the rule table in order; first match wins.
func (c *Classifier) classifyByRule(track models.Track) (models.Vibe, models.Source) {
	for _, rule := range c.rules {
		if rule.matches(track) {
			return rule.Vibe, models.SourceRule
		}
	}
	return VibeUnclassified, models.SourceNone
}

// refine asks the model for a vibe and parses the free-text reply.
func (c *Classifier) refine(ctx context.Context, track models.Track, prompt string) (models.Vibe, error) {
	response, err := c.completer.Complete(ctx, systemPrompt(), userPrompt(track, prompt))
	if err != nil {
		return "", err
	}

	vibe, ok := Parse(response)
	if !ok {
		return "", fmt.Errorf("%w: model reply %q", shared.ErrVibeUnknown, truncate(response, 80))
	}

	return vibe, nil
}

func systemPrompt() string {
	names := make([]string, 0, len(Known()))
	for _, vibe := range Known() {
		names = append(names, string(vibe))
	}
	return "You sort songs into mood playlists. Reply with exactly one of these category names and nothing else: " +
		strings.Join(names, ", ") + "."
}

func userPrompt(track models.Track, prompt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Song: %s", track.Title)
	if artist := track.PrimaryArtist(); artist != "" {
		fmt.Fprintf(&b, " by %s", artist)
	}
	if track.Album != "" {
		fmt.Fprintf(&b, " (album: %s)", track.Album)
	}
	if len(track.Genres) > 0 {
		fmt.Fprintf(&b, "\nGenres: %s", strings.Join(track.Genres, ", "))
	}
	if f := track.Features; f != nil {
		fmt.Fprintf(&b, "\nAudio: valence=%.2f energy=%.2f danceability=%.2f tempo=%.0f",
			f.Valence, f.Energy, f.Danceability, f.Tempo)
	}
	fmt.Fprintf(&b, "\nListener's request: %s", prompt)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
