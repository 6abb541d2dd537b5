package app

// Actor identifies who is performing an operation. Authentication happens
// upstream; only the role's category restriction matters here.
type Actor struct {
	ID   string
	Role string
}

// CategoryPolicy tells the reservation protocol whether a role is confined
// to a single root category. Unrestricted roles may reserve anything.
type CategoryPolicy interface {
	AllowedRootCategory(role string) (categoryID string, restricted bool)
}

// StaticCategoryPolicy maps role names to the one root category they may
// touch. Roles absent from the map are unrestricted.
type StaticCategoryPolicy map[string]string

func (p StaticCategoryPolicy) AllowedRootCategory(role string) (string, bool) {
	categoryID, ok := p[role]
	return categoryID, ok
}
