// Package entities contains domain entities used across the application.
package entities

// Category is a topical grouping of trivia questions.
type Category string

const (
	CategoryOldTestament   Category = "old_testament"
	CategoryNewTestament   Category = "new_testament"
	CategoryGospels        Category = "gospels"
	CategoryCharacters     Category = "characters"
	CategoryWisdomProphecy Category = "wisdom_prophecy"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryOldTestament,
	CategoryNewTestament,
	CategoryGospels,
	CategoryCharacters,
	CategoryWisdomProphecy,
}

// ParseCategory returns the category for a raw value and whether it is known.
func ParseCategory(s string) (Category, bool) {
	for _, c := range AllCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// DisplayName returns a human-readable category name.
func (c Category) DisplayName() string {
	switch c {
	case CategoryOldTestament:
		return "Old Testament"
	case CategoryNewTestament:
		return "New Testament"
	case CategoryGospels:
		return "Gospels"
	case CategoryCharacters:
		return "Bible Characters"
	case CategoryWisdomProphecy:
		return "Wisdom & Prophecy"
	default:
		return string(c)
	}
}

// Icon returns an emoji used next to the category name.
func (c Category) Icon() string {
	switch c {
	case CategoryOldTestament:
		return "📜"
	case CategoryNewTestament:
		return "📖"
	case CategoryGospels:
		return "✝️"
	case CategoryCharacters:
		return "👥"
	case CategoryWisdomProphecy:
		return "🕊️"
	default:
		return "❓"
	}
}
