package entity

import "time"

// Collection identifies one of the independently synced remote collections.
type Collection string

const (
	CollectionProducts   Collection = "products"
	CollectionCategories Collection = "categories"
	CollectionSettings   Collection = "settings"
)

// Change operations carried by a ChangeNotice.
const (
	ChangeUpsert = "upsert"
	ChangeDelete = "delete"
)

// SettingsDocID is the fixed document id of the settings singleton.
const SettingsDocID = "general"

// ChangeNotice tells mirrors that a collection changed. It carries no entity
// data: consumers rescan the whole collection and replace their snapshot, so
// a half-applied update is never observable.
type ChangeNotice struct {
	Collection Collection `json:"collection"`
	DocID      string     `json:"doc_id,omitempty"`
	Op         string     `json:"op"`
	OccurredAt time.Time  `json:"occurred_at"`
}
