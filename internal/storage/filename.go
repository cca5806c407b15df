package storage

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var filenameStripRe = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

var windowsDeviceFiles = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SecureFilename returns a flat, ASCII-only version of name that is safe to
// use as a file or object name. The result may be empty.
//
//	SecureFilename("My cool movie.mov") == "My_cool_movie.mov"
//	SecureFilename("../../../etc/passwd") == "etc_passwd"
func SecureFilename(name string) string {
	// fold accents away, then drop whatever is still outside ASCII
	decomposed := norm.NFKD.String(name)
	var b strings.Builder
	for _, r := range decomposed {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	name = b.String()

	name = strings.NewReplacer("/", " ", `\`, " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = filenameStripRe.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if name != "" && windowsDeviceFiles[strings.ToUpper(strings.SplitN(name, ".", 2)[0])] {
		name = "_" + name
	}
	return name
}

// IsSecureFilename reports whether name is already in sanitized form.
func IsSecureFilename(name string) bool {
	return name != "" && SecureFilename(name) == name
}
