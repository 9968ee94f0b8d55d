package speech

import (
	"strings"

	"github.com/omnihome/omnihome/pkg/tts"
)

// naturalMarkers are name fragments that indicate a higher-quality
// synthesis voice in typical provider catalogs.
var naturalMarkers = []string{"natural", "neural", "google"}

// ChooseVoice picks a playback voice from a provider catalog. It prefers
// voices whose name carries a natural-quality marker and whose language
// is English, then any English voice, then the first voice in the
// catalog. Returns false when the catalog is empty.
func ChooseVoice(voices []tts.Voice) (tts.Voice, bool) {
	if len(voices) == 0 {
		return tts.Voice{}, false
	}
	for _, v := range voices {
		if isEnglish(v.Language) && isNatural(v.Name) {
			return v, true
		}
	}
	for _, v := range voices {
		if isEnglish(v.Language) {
			return v, true
		}
	}
	return voices[0], true
}

func isEnglish(lang string) bool {
	return strings.HasPrefix(strings.ToLower(lang), "en")
}

func isNatural(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range naturalMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
