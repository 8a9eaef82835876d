package stremio

import (
	"strconv"
	"strings"
)

// Item is one entry of a catalog ("metas") or stream ("streams") response.
// Addons disagree on field names, so items stay loosely typed and fields are
// read through Fields.
type Item map[string]any

// String returns the first non-empty value among keys, trimmed.
// Numbers are formatted; other types are ignored.
func (it Item) String(keys ...string) string {
	for _, k := range keys {
		var s string
		switch v := it[k].(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// CatalogResponse is the body of /catalog/{type}/{id}.json
type CatalogResponse struct {
	Metas *[]Item `json:"metas"`
}

// StreamResponse is the body of /stream/{type}/{id}.json
type StreamResponse struct {
	Streams []Item `json:"streams"`
}

// Fields lists the JSON keys tried, in order, for each descriptor attribute.
type Fields struct {
	Name []string
	URL  []string
	Logo []string
}

// DefaultFields matches the keys used by the Stremio addon SDK.
func DefaultFields() Fields {
	return Fields{
		Name: []string{"name", "title"},
		URL:  []string{"url", "externalUrl"},
		Logo: []string{"logo", "poster"},
	}
}

// StreamDescriptor is one playable channel taken from the addon.
type StreamDescriptor struct {
	ID    string
	Name  string
	URL   string
	Logo  string
	Group string
}
