package loam

// ItemMetadata is the frontmatter of one catalog document.
// Price may be given as integer cents or as a decimal amount; cents win.
type ItemMetadata struct {
	ItemID         string `json:"item_id" mapstructure:"item_id"`
	Description    string `json:"description" mapstructure:"description"`
	UnitValueCents *int64 `json:"unit_value_cents" mapstructure:"unit_value_cents"`
	Price          any    `json:"price" mapstructure:"price"`
}
