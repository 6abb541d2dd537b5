package domain

import "time"

// InventoryItem is a physical rental article (plates, urns, tables...).
// ReturnDelayDays keeps the item blocked after an event's pickup time to
// cover cleaning and transport back to the warehouse.
type InventoryItem struct {
	ID              string
	Name            string
	Unit            string
	CategoryID      string
	ReturnDelayDays int
	Active          bool
	CreatedAt       time.Time
}

// Category is a node in the item taxonomy. Only the root of the tree matters
// to the core: role restrictions are expressed against root categories.
type Category struct {
	ID       string
	Name     string
	ParentID *string
}

// ItemWithRoot pairs an item with the root of its category subtree, which is
// what role restrictions are checked against. RootCategoryID is empty for
// uncategorized items.
type ItemWithRoot struct {
	Item           InventoryItem
	RootCategoryID string
}
