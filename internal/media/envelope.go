package media

import (
	"fmt"
	"math"
)

// FadeOutStart returns where the fade-out begins for a clip of the given
// duration. Clips shorter than the fade start fading out at 0.
func FadeOutStart(duration, fade float64) float64 {
	return math.Max(0, duration-fade)
}

// FadeFilter renders the fade-in/fade-out envelope for a clip, in seconds.
func FadeFilter(duration, fade float64) string {
	return fmt.Sprintf("afade=t=in:st=0:d=%.6f,afade=t=out:st=%.6f:d=%.6f",
		fade, FadeOutStart(duration, fade), fade)
}

func channelLayout(channels int) string {
	if channels == 1 {
		return "mono"
	}
	return "stereo"
}
