package ui

import (
	"testing"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Dracula" || names[1] != "Nightfox" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Dracula Nightfox Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Dracula"); got != "Nightfox" {
		t.Fatalf("NextTheme(Dracula) = %q, want Nightfox", got)
	}
	if got := NextTheme("Slate"); got != "Dracula" {
		t.Fatalf("NextTheme(Slate) = %q, want Dracula", got)
	}
	if got := NextTheme("Unknown"); got != "Dracula" {
		t.Fatalf("NextTheme(Unknown) = %q, want Dracula", got)
	}
}

func TestGetTheme(t *testing.T) {
	for _, name := range ThemeNames() {
		if got := GetTheme(name).Name; got != name {
			t.Fatalf("GetTheme(%s).Name = %q", name, got)
		}
	}
	if got := GetTheme("Unknown").Name; got != "Dracula" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Dracula (fallback)", got)
	}
}

func TestConnStyleFallsBackToMuted(t *testing.T) {
	th := GetTheme("Dracula")
	styles := th.Styles()

	open := styles.ConnStyle("open")
	if open.GetForeground() != styles.SuccessText.GetForeground() {
		t.Fatalf("ConnStyle(open) foreground = %v, want success color", open.GetForeground())
	}

	unknown := styles.ConnStyle("bogus")
	if unknown.GetForeground() != styles.MutedText.GetForeground() {
		t.Fatalf("ConnStyle(bogus) foreground = %v, want muted color", unknown.GetForeground())
	}
}

func TestEveryThemeCoversAllConnStates(t *testing.T) {
	states := []string{"idle", "connecting", "open", "closing", "closed", "failed"}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, state := range states {
			if th.ConnColors[state] == "" {
				t.Fatalf("theme %s missing conn color for %q", name, state)
			}
		}
	}
}
