package model

// Category is one of the tags the compose form suggests.
// The store accepts any category string; this list is only a suggestion.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

// Categories is the fixed set of suggested categories, in display order.
var Categories = []Category{
	{ID: "hope", Name: "Hope & Inspiration", Emoji: "🌱", Description: "Messages of hope, inspiration, and positive outlook"},
	{ID: "reflection", Name: "Reflection & Thoughts", Emoji: "🌙", Description: "Deep thoughts, reflections, and contemplations"},
	{ID: "gratitude", Name: "Gratitude & Thanks", Emoji: "☀️", Description: "Expressions of gratitude and thankfulness"},
	{ID: "support", Name: "Support & Encouragement", Emoji: "💙", Description: "Messages of support and encouragement"},
	{ID: "dreams", Name: "Dreams & Aspirations", Emoji: "✨", Description: "Dreams, goals, and aspirations for the future"},
}

// LookupCategory returns the suggested category with the given id.
func LookupCategory(id string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
