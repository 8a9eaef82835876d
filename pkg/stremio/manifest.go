package stremio

// Manifest represents the Stremio addon manifest
type Manifest struct {
	ID          string    `json:"id"`
	Version     string    `json:"version"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Types       []string  `json:"types"`
	Catalogs    []Catalog `json:"catalogs"`
	Logo        string    `json:"logo,omitempty"`
}

// Catalog represents a content catalog
type Catalog struct {
	Type          string      `json:"type"`
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Extra         []ExtraItem `json:"extra,omitempty"`
	ExtraRequired []string    `json:"extraRequired,omitempty"`
}

// ExtraItem describes an extra catalog argument such as "search" or "genre".
type ExtraItem struct {
	Name       string   `json:"name"`
	IsRequired bool     `json:"isRequired,omitempty"`
	Options    []string `json:"options,omitempty"`
}

// Listable reports whether the catalog can be fetched without extra arguments.
// Search-only catalogs mark their "search" extra as required.
func (c Catalog) Listable() bool {
	if len(c.ExtraRequired) > 0 {
		return false
	}
	for _, e := range c.Extra {
		if e.IsRequired {
			return false
		}
	}
	return true
}

// Group is the playlist group for items of this catalog.
func (c Catalog) Group() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}
