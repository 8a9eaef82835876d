// Package playlist renders channels as an M3U document and writes it to disk.
package playlist

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
)

const (
	Header = "#EXTM3U"

	// DefaultName replaces names that are empty after sanitizing.
	DefaultName = "Unknown Channel"
)

// Entry is one channel of the playlist.
type Entry struct {
	Name  string
	URL   string
	Logo  string
	Group string
}

// Options controls rendering.
type Options struct {
	// Attributes adds tvg-logo and group-title to EXTINF lines when the entry has them.
	Attributes bool
}

// Render returns the M3U document for entries, in order. Entries without a
// usable URL are dropped; an empty list renders the header alone.
func Render(entries []Entry, opts Options) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString(Header + "\n")
	for _, e := range entries {
		if !Playable(e.URL) {
			continue
		}
		buf.WriteString("#EXTINF:-1")
		if opts.Attributes {
			if logo := attrValue(e.Logo); logo != "" {
				fmt.Fprintf(buf, ` tvg-logo="%s"`, logo)
			}
			if group := attrValue(e.Group); group != "" {
				fmt.Fprintf(buf, ` group-title="%s"`, group)
			}
		}
		buf.WriteString("," + SanitizeName(e.Name) + "\n")
		buf.WriteString(e.URL + "\n")
	}
	return buf.Bytes()
}

// Count returns how many entries Render would emit.
func Count(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if Playable(e.URL) {
			n++
		}
	}
	return n
}

// Playable reports whether url can be written verbatim on a single line.
func Playable(url string) bool {
	return strings.TrimSpace(url) != "" && !strings.ContainsAny(url, "\r\n")
}

// SanitizeName folds runs of control and space characters (line breaks
// included) into single spaces so the name stays on the EXTINF line.
func SanitizeName(name string) string {
	name = singleLine(name)
	if name == "" {
		return DefaultName
	}
	return name
}

func attrValue(v string) string {
	return strings.ReplaceAll(singleLine(v), `"`, "'")
}

func singleLine(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
