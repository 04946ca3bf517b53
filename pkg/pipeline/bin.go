package pipeline

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// readBinFile loads name under binFolder, stripping whitespace. Bin
// files are ASCII hex text; whitespace carries no meaning.
func readBinFile(binFolder, name string) (string, error) {
	path := filepath.Join(binFolder, name)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading bin file %q: %w", path, err)
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(content)), nil
}

// placeholderNames returns the distinct ${IDENT} names referenced in
// hexText.
func placeholderNames(hexText string) []string {
	seen := map[string]bool{}
	var names []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(hexText, -1) {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// substitutePlaceholders replaces every ${NAME} in hexText with the
// 40-char lowercase hex address computed[NAME], without a 0x prefix.
func substitutePlaceholders(hexText string, computed map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(hexText, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		return computed[name]
	})
}

// decodeInitCode hex-decodes fully-substituted init-code text. Returns
// an error if any placeholder remains unsubstituted or the text is not
// valid hex.
func decodeInitCode(hexText string) ([]byte, error) {
	if placeholderPattern.MatchString(hexText) {
		return nil, fmt.Errorf("unresolved placeholder(s) remain in init-code: %s", placeholderPattern.FindString(hexText))
	}
	return hex.DecodeString(hexText)
}
