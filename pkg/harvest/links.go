package harvest

import "strings"

// Link relations used for pagination.
const (
	RelNext = "next"
	RelPrev = "prev"
	RelLast = "last"
)

// ParseLinkHeader maps rel names to URLs from a header such as
//
//	<https://harvest.greenhouse.io/v1/candidates?page=2>; rel="next", <...?page=9>; rel="last"
//
// Entries that cannot be parsed are skipped, so a malformed header yields an empty map.
func ParseLinkHeader(header string) map[string]string {
	links := make(map[string]string)

	for _, entry := range strings.Split(header, ",") {
		target, params, ok := strings.Cut(strings.TrimSpace(entry), ";")
		if !ok {
			continue
		}

		target = strings.TrimSpace(target)
		if len(target) < 2 || target[0] != '<' || target[len(target)-1] != '>' {
			continue
		}

		rel := relParam(params)
		if rel == "" {
			continue
		}

		links[rel] = target[1 : len(target)-1]
	}

	return links
}

func relParam(params string) string {
	for _, param := range strings.Split(params, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "rel") {
			continue
		}

		return strings.Trim(strings.TrimSpace(value), `"`)
	}

	return ""
}
