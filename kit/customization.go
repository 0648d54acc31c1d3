package kit

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultPatternColor is used when a pattern is chosen without a color.
	DefaultPatternColor = "#ffffff"

	MaxPlayerName   = 15
	MaxPlayerNumber = 2
)

// ErrInvalidCustomization wraps every Validate failure.
var ErrInvalidCustomization = errors.New("invalid customization")

// Customization is a snapshot of a user's garment design. It is a value:
// use Update to derive a changed copy instead of mutating a shared one.
type Customization struct {
	BaseColor    string `json:"baseColor"`
	AccentColor  string `json:"accentColor"`
	Pattern      string `json:"pattern"`
	PatternColor string `json:"patternColor,omitempty"`
	PlayerName   string `json:"playerName"`
	PlayerNumber string `json:"playerNumber"`
	LogoURL      string `json:"logoUrl,omitempty"`
	ModelType    string `json:"modelType,omitempty"`
}

// DefaultCustomization is the design a new session starts from.
func DefaultCustomization() Customization {
	return Customization{
		BaseColor:    "#2563eb",
		AccentColor:  "#1d4ed8",
		Pattern:      "stripes",
		PlayerName:   "SILVA",
		PlayerNumber: "10",
	}.Normalize()
}

// Update returns a normalized copy of c with fn applied.
func (c Customization) Update(fn func(*Customization)) Customization {
	fn(&c)
	return c.Normalize()
}

// Normalize applies the input rules: upper-case bounded player name,
// bounded number, "solid" for an empty pattern, "#rrggbb" colors.
func (c Customization) Normalize() Customization {
	c.BaseColor = normalizeHex(c.BaseColor)
	c.AccentColor = normalizeHex(c.AccentColor)
	c.PatternColor = normalizeHex(c.PatternColor)
	if c.Pattern == "" {
		c.Pattern = Solid
	}
	c.PlayerName = truncate(strings.ToUpper(c.PlayerName), MaxPlayerName)
	c.PlayerNumber = truncate(c.PlayerNumber, MaxPlayerNumber)
	return c
}

// Options returns what the applier needs. A missing pattern color falls
// back to DefaultPatternColor.
func (c Customization) Options() Options {
	o := Options{
		BaseColor:    c.BaseColor,
		Pattern:      c.Pattern,
		PatternColor: c.PatternColor,
	}
	if o.Pattern == "" {
		o.Pattern = Solid
	}
	if o.PatternColor == "" {
		o.PatternColor = DefaultPatternColor
	}
	return o
}

// Validate checks a customization received from outside the process.
func (c Customization) Validate(catalog Catalog) error {
	if _, err := ParseHex(c.BaseColor); err != nil {
		return fmt.Errorf("%w: baseColor: %v", ErrInvalidCustomization, err)
	}
	for field, v := range map[string]string{"accentColor": c.AccentColor, "patternColor": c.PatternColor} {
		if v == "" {
			continue
		}
		if _, err := ParseHex(v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidCustomization, field, err)
		}
	}
	if catalog != nil && !catalog.Known(c.Pattern) {
		return fmt.Errorf("%w: unknown pattern %q", ErrInvalidCustomization, c.Pattern)
	}
	if utf8.RuneCountInString(c.PlayerName) > MaxPlayerName {
		return fmt.Errorf("%w: playerName longer than %d", ErrInvalidCustomization, MaxPlayerName)
	}
	if utf8.RuneCountInString(c.PlayerNumber) > MaxPlayerNumber {
		return fmt.Errorf("%w: playerNumber longer than %d", ErrInvalidCustomization, MaxPlayerNumber)
	}
	if c.LogoURL != "" && !strings.HasPrefix(c.LogoURL, "data:image/") {
		return fmt.Errorf("%w: logoUrl must be an image data URL", ErrInvalidCustomization)
	}
	if c.ModelType != "" && !modelTypePattern.MatchString(c.ModelType) {
		return fmt.Errorf("%w: invalid modelType %q", ErrInvalidCustomization, c.ModelType)
	}
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
