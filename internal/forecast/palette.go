package forecast

// Palette defines the colour scheme used to render a sunset kind.
type Palette struct {
	// Sky is the top of the background gradient
	Sky string `json:"sky"`
	// Horizon is the bottom of the background gradient
	Horizon string `json:"horizon"`
	// Accent highlights the score
	Accent string `json:"accent"`
	// Text is the primary text colour
	Text string `json:"text"`
	// TextMuted is the secondary text colour
	TextMuted string `json:"text_muted"`
}

// DefaultPalette is the fallback dusk theme.
var DefaultPalette = Palette{
	Sky:       "#1a1a2e",
	Horizon:   "#4a3048",
	Accent:    "#FF6B35",
	Text:      "#eeeeee",
	TextMuted: "#a0a0b0",
}

var palettes = map[SunsetKind]Palette{
	KindNone: {
		Sky:       "#2a2e36", // flat overcast grey
		Horizon:   "#4a4e56",
		Accent:    "#8B95A5",
		Text:      "#e8eaee",
		TextMuted: "#8890a0",
	},
	KindBloodSun: {
		Sky:       "#2a1410", // dusty brown
		Horizon:   "#8a2a18",
		Accent:    "#ff3b1f",
		Text:      "#fff0e8",
		TextMuted: "#c09080",
	},
	KindBreakthrough: {
		Sky:       "#1c2230", // storm blue
		Horizon:   "#c87830",
		Accent:    "#ffd050",
		Text:      "#fff8e8",
		TextMuted: "#a0a8b8",
	},
	KindPinkFire: {
		Sky:       "#3a1a48", // purple dusk
		Horizon:   "#e0508a",
		Accent:    "#ff7ab0",
		Text:      "#fff0f8",
		TextMuted: "#c8a0c0",
	},
	KindDramaticSheep: {
		Sky:       "#20304a", // deep blue
		Horizon:   "#d88a40",
		Accent:    "#F7C948",
		Text:      "#f8f4e8",
		TextMuted: "#a8b0c0",
	},
	KindCleanGradient: {
		Sky:       "#1a2a50", // clear twilight
		Horizon:   "#f0a060",
		Accent:    "#88B7D5",
		Text:      "#f0f4ff",
		TextMuted: "#a0b0d0",
	},
	KindNormal: {
		Sky:       "#22263a",
		Horizon:   "#b86840",
		Accent:    "#FF6B35",
		Text:      "#eeeeee",
		TextMuted: "#a0a0b0",
	},
}

// GetPalette returns the palette for a sunset kind.
func GetPalette(kind SunsetKind) Palette {
	if p, ok := palettes[kind]; ok {
		return p
	}
	return DefaultPalette
}
