package httpds

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/zeebo/xxh3"
)

// filenameCleaner replaces sequences of non-alphanumeric characters with "_".
var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// maxStemLen bounds the URL-derived part of a download file name.
const maxStemLen = 48

// HashString returns a stable 16-char hex xxh3 digest of s.
func HashString(s string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(s))
}

// SafeFilenameFromURL derives a filesystem-safe file stem from a raw URL.
// It uses the last path segment, cleaned to [A-Za-z0-9_], followed by a hash
// of the whole URL so distinct URLs with the same basename never collide.
// When the URL cannot be parsed or has no usable path, only the hash is
// returned.
func SafeFilenameFromURL(rawURL string) string {
	sum := HashString(rawURL)

	u, err := url.Parse(rawURL)
	if err != nil {
		return sum
	}

	base := u.Path
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	clean := filenameCleaner.ReplaceAllString(base, "_")
	if clean == "" || clean == "_" {
		return sum
	}
	if len(clean) > maxStemLen {
		clean = clean[:maxStemLen]
	}
	return clean + "_" + sum
}
