package forecast

import "fmt"

// baseStylePrompt defines the consistent visual style for all generated banners.
const baseStylePrompt = `Serene watercolor painting of the Valencia coastline at sunset.
Mediterranean sea in the foreground, the city skyline and Albufera reeds low on the horizon.
Style: impressionistic watercolor, soft gradients, warm tones, peaceful and minimal.
Wide panoramic composition suitable for a website header banner.
No text, no people, no animals.`

// kindPrompts describes the sky for each sunset kind.
var kindPrompts = map[SunsetKind]string{
	KindNone:          "Thick low grey cloud sitting on the horizon, the sun hidden, muted diffuse light.",
	KindBloodSun:      "Hazy dusty sky from Saharan calima, a deep red solar disc low over the sea, brownish air.",
	KindBreakthrough:  "Clearing storm, dark cloud deck with a bright gap where the sun breaks through, shafts of golden light.",
	KindPinkFire:      "High thin cirrus streaks glowing vivid pink and purple across the whole sky after sunset.",
	KindDramaticSheep: "Rows of puffy mid-level altocumulus with glowing golden edges, dark bases and patches of blue between.",
	KindCleanGradient: "Perfectly clear sky fading smoothly from deep blue overhead to orange at the horizon, no clouds.",
	KindNormal:        "A pleasant ordinary sunset, a few scattered clouds, warm orange light over the water.",
}

// BuildPrompt creates the banner generation prompt for a sunset kind.
func BuildPrompt(kind SunsetKind) string {
	desc, ok := kindPrompts[kind]
	if !ok {
		desc = kindPrompts[KindNormal]
	}
	return fmt.Sprintf("%s\n\nSky: %s", baseStylePrompt, desc)
}
