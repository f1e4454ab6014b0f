package models

// SupportedLanguages maps each supported language code to the English name
// used in translation prompts. The set is the intersection of what the STT
// and TTS engines both handle.
var SupportedLanguages = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"hi": "Hindi",
	"zh": "Chinese (Mandarin)",
	"ja": "Japanese",
}

// ValidLanguage reports whether code is in the supported set.
func ValidLanguage(code string) bool {
	_, ok := SupportedLanguages[code]
	return ok
}

// LanguageName returns the English name for a language code, or the code
// itself if unknown.
func LanguageName(code string) string {
	if name, ok := SupportedLanguages[code]; ok {
		return name
	}
	return code
}
