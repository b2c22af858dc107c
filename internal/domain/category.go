package domain

type Category struct {
	ID       string
	OwnerID  string
	Name     string
	Color    string
	IsCustom bool
}

// DefaultCategories are the olfactive families every catalog starts with.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Citrus", Color: "#fabd2f"},
		{Name: "Floral", Color: "#d3869b"},
		{Name: "Green", Color: "#b8bb26"},
		{Name: "Fruity", Color: "#fb4934"},
		{Name: "Spicy", Color: "#fe8019"},
		{Name: "Woody", Color: "#a89984"},
		{Name: "Amber", Color: "#d79921"},
		{Name: "Musk", Color: "#ebdbb2"},
		{Name: "Aldehydic", Color: "#83a598"},
		{Name: "Aquatic", Color: "#458588"},
		{Name: "Gourmand", Color: "#af3a03"},
		{Name: "Other", Color: "#928374"},
	}
}
