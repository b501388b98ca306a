package category

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var ErrEmptyCategory = errors.New("category name is empty")

// Name is a canonical category key. Two inputs differing only in letter case
// parse to the same Name.
type Name string

// Defaults are offered to new users before they create their own categories.
var Defaults = []Name{"Food", "Entertainment", "Transport", "School supplies"}

// Parse canonicalizes raw user input: surrounding space is trimmed, the first
// letter is upper-cased and the rest lower-cased.
func Parse(raw string) (Name, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyCategory
	}
	first, size := utf8.DecodeRuneInString(raw)
	return Name(string(unicode.ToUpper(first)) + strings.ToLower(raw[size:])), nil
}

func (n Name) String() string {
	return string(n)
}
