package translate

// Language carries the display metadata for a supported target language.
type Language struct {
	Code   string
	Name   string
	Native string
}

// SupportedLanguages is the fixed set the wizard offers. Validation rejects
// any code outside this list, for both target and (optional) source.
var SupportedLanguages = []Language{
	{Code: "en", Name: "English", Native: "English"},
	{Code: "es", Name: "Spanish", Native: "Español"},
	{Code: "fr", Name: "French", Native: "Français"},
	{Code: "de", Name: "German", Native: "Deutsch"},
	{Code: "it", Name: "Italian", Native: "Italiano"},
	{Code: "pt", Name: "Portuguese", Native: "Português"},
	{Code: "ja", Name: "Japanese", Native: "日本語"},
	{Code: "ko", Name: "Korean", Native: "한국어"},
	{Code: "zh", Name: "Chinese", Native: "中文"},
	{Code: "hi", Name: "Hindi", Native: "हिन्दी"},
}

// Lookup returns the language entry for a code.
func Lookup(code string) (Language, bool) {
	for _, l := range SupportedLanguages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// IsSupported reports whether the code is in the supported set.
func IsSupported(code string) bool {
	_, ok := Lookup(code)
	return ok
}
