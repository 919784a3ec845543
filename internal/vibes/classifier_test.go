package vibes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/shared"
	tu "github.com/desertthunder/vibepilot/internal/testing"
)

func TestClassifier(t *testing.T) {
	ctx := context.Background()

	hypeTrack := models.Track{
		ID:       "t1",
		Title:    "Full Throttle",
		Artists:  []string{"Testers"},
		Features: &models.AudioFeatures{Valence: 0.9, Energy: 0.9, Tempo: 140},
	}
	blankTrack := models.Track{ID: "t2", Title: "Mystery"}

	t.Run("rules only without completer", func(t *testing.T) {
		c := NewClassifier(nil, nil)

		vibe, source := c.Classify(ctx, hypeTrack, "")
		if vibe != VibeHype {
			t.Errorf("got %q, want %q", vibe, VibeHype)
		}
		if source != models.SourceRule {
			t.Errorf("got source %q, want %q", source, models.SourceRule)
		}
	})

	t.Run("unmatched track falls back to Unclassified", func(t *testing.T) {
		c := NewClassifier(nil, nil)

		vibe, source := c.Classify(ctx, blankTrack, "")
		if vibe != VibeUnclassified {
			t.Errorf("got %q, want %q", vibe, VibeUnclassified)
		}
		if source != models.SourceNone {
			t.Errorf("got source %q, want %q", source, models.SourceNone)
		}
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		c := NewClassifier(nil, nil)

		first, _ := c.Classify(ctx, hypeTrack, "")
		for i := 0; i < 10; i++ {
			got, _ := c.Classify(ctx, hypeTrack, "")
			if got != first {
				t.Fatalf("classification changed between calls: %q then %q", first, got)
			}
		}
	})

	t.Run("no prompt skips the model entirely", func(t *testing.T) {
		completer := &tu.MockCompleter{Response: "Sad Bops"}
		c := NewClassifier(completer, nil)

		vibe, _ := c.Classify(ctx, hypeTrack, "")
		if vibe != VibeHype {
			t.Errorf("got %q, want rule result %q", vibe, VibeHype)
		}
		if completer.Calls != 0 {
			t.Errorf("completer called %d times, want 0", completer.Calls)
		}
	})

	t.Run("model reply overrides rule result", func(t *testing.T) {
		completer := &tu.MockCompleter{Response: "This feels like a Party vibe!"}
		c := NewClassifier(completer, nil)

		vibe, source := c.Classify(ctx, blankTrack, "sort by workout energy")
		if vibe != VibeHype {
			t.Errorf("got %q, want %q", vibe, VibeHype)
		}
		if source != models.SourceModel {
			t.Errorf("got source %q, want %q", source, models.SourceModel)
		}
		if completer.Calls != 1 {
			t.Errorf("completer called %d times, want 1", completer.Calls)
		}
	})

	t.Run("model failure keeps deterministic result", func(t *testing.T) {
		completer := &tu.MockCompleter{Err: errors.New("connection refused")}
		c := NewClassifier(completer, nil)

		vibe, source := c.Classify(ctx, hypeTrack, "anything")
		if vibe != VibeHype {
			t.Errorf("got %q, want %q", vibe, VibeHype)
		}
		if source != models.SourceRule {
			t.Errorf("got source %q, want %q", source, models.SourceRule)
		}
	})

	t.Run("unparseable reply keeps deterministic result", func(t *testing.T) {
		completer := &tu.MockCompleter{Response: "I am not sure about this one."}
		c := NewClassifier(completer, nil)

		vibe, source := c.Classify(ctx, blankTrack, "anything")
		if vibe != VibeUnclassified {
			t.Errorf("got %q, want %q", vibe, VibeUnclassified)
		}
		if source != models.SourceNone {
			t.Errorf("got source %q, want %q", source, models.SourceNone)
		}
	})

	t.Run("unparseable reply surfaces as an unknown vibe", func(t *testing.T) {
		completer := &tu.MockCompleter{Response: "I am not sure about this one."}
		c := NewClassifier(completer, nil)

		_, err := c.refine(ctx, blankTrack, "anything")
		if !errors.Is(err, shared.ErrVibeUnknown) {
			t.Errorf("error %v should wrap ErrVibeUnknown", err)
		}
	})
}

func TestPrompts(t *testing.T) {
	t.Run("system prompt lists every assignable vibe", func(t *testing.T) {
		prompt := systemPrompt()
		for _, vibe := range Known() {
			if !strings.Contains(prompt, string(vibe)) {
				t.Errorf("system prompt missing %q", vibe)
			}
		}
		if strings.Contains(prompt, string(VibeUnclassified)) {
			t.Error("system prompt should not offer the fallback")
		}
	})

	t.Run("user prompt includes track context and request", func(t *testing.T) {
		track := models.Track{
			ID:       "t1",
			Title:    "Evening Glow",
			Artists:  []string{"Duo"},
			Album:    "Sunset",
			Genres:   []string{"synthwave"},
			Features: &models.AudioFeatures{Valence: 0.5, Energy: 0.6, Tempo: 110},
		}

		prompt := userPrompt(track, "songs for driving at night")
		for _, want := range []string{"Evening Glow", "Duo", "Sunset", "synthwave", "songs for driving at night"} {
			if !strings.Contains(prompt, want) {
				t.Errorf("user prompt missing %q", want)
			}
		}
	})
}
