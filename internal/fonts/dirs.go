package fonts

import (
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"
)

var fontExtensions = []string{".ttf", ".otf"}

// PlatformDirs returns the font directories searched on goos. home and
// getenv are injected so the lists can be built for any platform.
func PlatformDirs(goos, home string, getenv func(string) string) []string {
	switch goos {
	case "windows":
		windir := getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		return []string{filepath.Join(windir, "Fonts")}
	case "linux":
		return []string{
			filepath.Join(home, ".fonts"),
			"/usr/local/share/fonts",
			"/usr/share/fonts",
		}
	case "darwin":
		return []string{
			filepath.Join(home, "Library", "Fonts"),
			"/Library/Fonts",
			"/System/Library/Fonts",
		}
	default:
		return nil
	}
}

// Candidates returns the file names tried for a family: the name as given,
// lower-cased, and without spaces, each with every supported extension.
func Candidates(family string) []string {
	family = strings.TrimSpace(family)
	if family == "" {
		return nil
	}

	variants := []string{family, strings.ToLower(family)}
	if strings.Contains(family, " ") {
		variants = append(variants, strings.ReplaceAll(family, " ", ""))
	}

	out := make([]string, 0, len(variants)*len(fontExtensions))
	for _, v := range variants {
		for _, ext := range fontExtensions {
			name := v + ext
			if !slices.Contains(out, name) {
				out = append(out, name)
			}
		}
	}
	return out
}
