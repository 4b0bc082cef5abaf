package models

// Taxonomy types.
const (
	TaxonomySector  = "sector"
	TaxonomyTheme   = "theme"
	TaxonomyTopdown = "topdown"
)

// IsValidTaxonomyType reports whether t is a known taxonomy type.
func IsValidTaxonomyType(t string) bool {
	return t == TaxonomySector || t == TaxonomyTheme || t == TaxonomyTopdown
}

// Taxonomy is a named classification node. (Type, Name) is unique.
type Taxonomy struct {
	ID        int64  `db:"id" json:"id"`
	Type      string `db:"type" json:"type"`
	Name      string `db:"name" json:"name"`
	ParentID  *int64 `db:"parent_id" json:"parentId"`
	SortOrder int    `db:"sort_order" json:"sortOrder"`
	CreatedAt string `db:"created_at" json:"createdAt,omitempty"`
	UpdatedAt string `db:"updated_at" json:"updatedAt,omitempty"`
}

// TaxonomyNode is a taxonomy row with its direct children and parent resolved.
type TaxonomyNode struct {
	Taxonomy
	Children []Taxonomy `json:"children"`
	Parent   *Taxonomy  `json:"parent"`
}

// TaxonomyReferences counts positions linked to a taxonomy node, per axis.
type TaxonomyReferences struct {
	Sector  int `json:"sector"`
	Theme   int `json:"theme"`
	Topdown int `json:"topdown"`
}

// Total returns the number of references across all axes.
func (r TaxonomyReferences) Total() int {
	return r.Sector + r.Theme + r.Topdown
}

// TaxonomyInput is the request body to create or update a taxonomy node.
// Type is ignored on update.
type TaxonomyInput struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	ParentID  *int64 `json:"parentId"`
	SortOrder int    `json:"sortOrder"`
}

// TaxonomyUpdate is the request body to change a taxonomy node. Only the keys present are applied.
type TaxonomyUpdate struct {
	Name      *string    `json:"name"`
	ParentID  OptionalID `json:"parentId"`
	SortOrder *int       `json:"sortOrder"`
}
