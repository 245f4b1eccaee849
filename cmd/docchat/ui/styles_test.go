package ui

import "testing"

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")
	t.Setenv("DOCCHAT_DARK_MODE", "1")
	dark := DetectTheme()
	if !dark.IsDark {
		t.Fatalf("expected dark theme when DOCCHAT_DARK_MODE=1")
	}

	t.Setenv("DOCCHAT_DARK_MODE", "")
	light := DetectTheme()
	if light.IsDark {
		t.Fatalf("expected light theme when DOCCHAT_DARK_MODE is unset")
	}
}

func TestDetectTheme_ColorFGBG(t *testing.T) {
	t.Setenv("DOCCHAT_DARK_MODE", "")
	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme().IsDark {
		t.Fatalf("expected dark theme for black background")
	}

	t.Setenv("COLORFGBG", "0;15")
	if DetectTheme().IsDark {
		t.Fatalf("expected light theme for white background")
	}
}

func TestThemeByName(t *testing.T) {
	if ThemeByName("dark") != DarkTheme() {
		t.Fatalf("dark name should resolve dark theme")
	}
	if ThemeByName("light") != LightTheme() {
		t.Fatalf("light name should resolve light theme")
	}
}

func TestRenderDivider_NeverEmpty(t *testing.T) {
	s := NewStyles(LightTheme())
	if s.RenderDivider(0) == "" {
		t.Fatalf("divider should render at least one cell")
	}
}
