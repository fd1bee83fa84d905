package collection

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Labels holds the user-facing wording for one kind of collection.
type Labels struct {
	// Noun names the collection in running text, e.g. "wishlist".
	Noun string
}

func (l Labels) addedTitle() string   { return "Added to " + l.Noun }
func (l Labels) presentTitle() string { return "Already in " + l.Noun }
func (l Labels) removedTitle() string { return "Removed from " + l.Noun }
func (l Labels) clearedTitle() string { return capitalize(l.Noun) + " cleared" }

func (l Labels) addedDescription(name string) string {
	return fmt.Sprintf("%s has been added to your %s.", name, l.Noun)
}

func (l Labels) presentDescription() string {
	return fmt.Sprintf("This product is already in your %s.", l.Noun)
}

func (l Labels) removedDescription(name string) string {
	return fmt.Sprintf("%s has been removed from your %s.", name, l.Noun)
}

func (l Labels) clearedDescription() string {
	return fmt.Sprintf("All items have been removed from your %s.", l.Noun)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.Clone(s[size:])
}
