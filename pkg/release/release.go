// Package release reads quality hints out of stream titles so alternative
// streams for the same channel can be ranked.
package release

import (
	"sort"
	"strings"

	"github.com/MunifTanjim/go-ptt"
)

// Info contains the parsed metadata that matters for ranking.
type Info struct {
	Title      string
	Resolution string
	Quality    string
	Codec      string
}

// Parse parses a release or stream title using go-ptt.
func Parse(title string) *Info {
	info := ptt.Parse(title)
	return &Info{
		Title:      info.Title,
		Resolution: info.Resolution,
		Quality:    info.Quality,
		Codec:      info.Codec,
	}
}

// ResolutionGroup returns the resolution group (4k, 1080p, 720p, sd) from parsed metadata.
func (i *Info) ResolutionGroup() string {
	if i == nil {
		return "sd"
	}
	res := strings.ToLower(i.Resolution)
	if strings.Contains(res, "2160") || strings.Contains(res, "4k") {
		return "4k"
	}
	if strings.Contains(res, "1080") {
		return "1080p"
	}
	if strings.Contains(res, "720") {
		return "720p"
	}
	return "sd"
}

var groupScore = map[string]int{
	"4k":    4,
	"1080p": 3,
	"720p":  2,
	"sd":    1,
}

// Score is higher for better resolutions.
func (i *Info) Score() int {
	return groupScore[i.ResolutionGroup()]
}

// Rank returns the index of the highest scoring title. Ties keep the earliest
// title, so addon order decides between equals. Returns -1 for no titles.
func Rank(titles []string) int {
	if len(titles) == 0 {
		return -1
	}
	order := make([]int, len(titles))
	scores := make([]int, len(titles))
	for i, t := range titles {
		order[i] = i
		scores[i] = Parse(t).Score()
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order[0]
}
