package interpreter

import (
	"regexp"
	"strings"
)

type marker int

const (
	markVisa marker = iota
	markWeather
	markFlights
	markHotels
	markAlternative
	markRecommended
	markWhyNot
	markFollowUp
)

// Header tokens, stored already normalized (see normalize).
var markerTokens = map[marker]string{
	markVisa:        normalize("🛂 VISA"),
	markWeather:     normalize("🌤️ WEATHER ANALYSIS"),
	markFlights:     normalize("✈️ FLIGHT OPTIONS"),
	markHotels:      normalize("🏨 HOTEL OPTIONS"),
	markAlternative: normalize("🔄 ALTERNATIVE OPTION"),
	markRecommended: normalize("✨ RECOMMENDED"),
	markWhyNot:      normalize("❌ WHY NOT"),
	markFollowUp:    normalize("💬 Feel free"),
}

// A "📋 Top N ... Options" list header opens its section on its own when the
// emoji section header is missing.
var markerFallbacks = map[marker]*regexp.Regexp{
	markFlights: topFlightsRe,
	markHotels:  topHotelsRe,
}

// sectionOrder is the canonical order; it also decides which section owns
// a line that carries two section tokens.
var sectionOrder = []marker{markVisa, markWeather, markFlights, markHotels, markAlternative}

var sectionStops = map[marker][]marker{
	markVisa:        {markWeather, markFlights, markHotels, markRecommended, markAlternative, markWhyNot, markFollowUp},
	markWeather:     {markFlights, markHotels, markRecommended, markAlternative, markWhyNot, markFollowUp},
	markFlights:     {markHotels, markRecommended, markAlternative, markWhyNot, markFollowUp},
	markHotels:      {markRecommended, markAlternative, markWhyNot, markFollowUp},
	markAlternative: {markWhyNot, markFollowUp},
}

// normalize lowercases s and drops the emoji presentation selector so that
// "🌤️" and "🌤" compare equal.
func normalize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "\uFE0F", ""))
}

// document is the line view of one message shared by every matcher.
type document struct {
	lines []string // verbatim, without line terminators
	norm  []string // normalize(lines[i])
	used  []bool
}

func newDocument(text string) *document {
	if text == "" {
		return &document{}
	}
	lines := strings.Split(text, "\n")
	norm := make([]string, len(lines))
	for i, l := range lines {
		l = strings.TrimSuffix(l, "\r")
		lines[i] = l
		norm[i] = normalize(l)
	}
	return &document{lines: lines, norm: norm, used: make([]bool, len(lines))}
}

func (d *document) has(i int, m marker) bool {
	if strings.Contains(d.norm[i], markerTokens[m]) {
		return true
	}
	re, ok := markerFallbacks[m]
	return ok && re.MatchString(d.lines[i])
}

func (d *document) hasAny(i int, ms []marker) bool {
	for _, m := range ms {
		if d.has(i, m) {
			return true
		}
	}
	return false
}

func (d *document) use(from, to int) {
	for i := from; i < to; i++ {
		d.used[i] = true
	}
}

func (d *document) remainder() []string {
	out := make([]string, 0, len(d.lines))
	for i, l := range d.lines {
		if !d.used[i] {
			out = append(out, l)
		}
	}
	return out
}

// span is one located section: the header line and the body [start, end).
type span struct {
	header     int
	start, end int
}

// segment locates every known section. Only the first header of each kind
// counts. A body ends at the first line carrying one of its stop tokens or
// at the next located section header, whichever comes first, so bodies
// never overlap.
func segment(d *document) map[marker]span {
	headers := make(map[marker]int, len(sectionOrder))
	taken := make(map[int]bool, len(sectionOrder))
	for _, m := range sectionOrder {
		for i := range d.lines {
			if d.has(i, m) {
				if !taken[i] {
					headers[m] = i
					taken[i] = true
				}
				break
			}
		}
	}

	out := make(map[marker]span, len(headers))
	for m, h := range headers {
		end := len(d.lines)
		for i := h + 1; i < len(d.lines); i++ {
			if taken[i] || d.hasAny(i, sectionStops[m]) {
				end = i
				break
			}
		}
		out[m] = span{header: h, start: h + 1, end: end}
	}
	return out
}
