package interpreter

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"travel_genie/internal/domain"
)

var (
	flightHeaderRe = regexp.MustCompile(`^\s*(\d+)\.\s+(.+)\s+-\s+\$(\S+)(?:\s+(.*))?$`)
	hotelHeaderRe  = regexp.MustCompile(`^\s*(\d+)\.\s+(.+)\s+-\s+\$(\S+?)/night(?:\s+(.*))?$`)

	departureRe = regexp.MustCompile(`(?i)^\s*Departure:\s*(.+?)\s*$`)
	returnRe    = regexp.MustCompile(`(?i)^\s*Return:\s*(.+?)\s*$`)
	durationRe  = regexp.MustCompile(`(?i)^\s*Duration:\s*(.+?)\s*$`)
	layoversRe  = regexp.MustCompile(`(?i)^(.*?),?\s*Layovers:\s*(\d+)`)
	reasonRe    = regexp.MustCompile(`(?i)^\s*Reason:\s*(.+?)\s*$`)
	ratingRe    = regexp.MustCompile(`(?i)^\s*Rating:\s*(.+?)\s*$`)
	totalRe     = regexp.MustCompile(`(?i)^\s*Total\b[^:]*:\s*\$?(\S+)`)
	noteRe      = regexp.MustCompile(`^\s*💰\s*(.+?)\s*$`)
)

// Badge indicators; either the glyph or the phrase sets the flag.
const (
	glyphWithin    = "✓"
	glyphPreferred = "⭐"
	wordWithin     = "within budget"
	wordPreferred  = "preferred brand"
)

// matcher tries one record shape at lines[i]. On success it returns the
// record and the number of lines it spans.
type matcher[T any] func(lines []string, i int) (T, int, bool)

// match is one extracted record and the lines [from, to) it came from,
// relative to the scanned slice.
type match[T any] struct {
	rec      T
	from, to int
}

// scan walks lines from the top, emitting every record the matcher accepts
// and skipping everything else one line at a time. A record whose rank does
// not exceed the previous accepted rank is treated as a non-match.
func scan[T any](lines []string, m matcher[T], rank func(T) int) []match[T] {
	var out []match[T]
	last := 0
	for i := 0; i < len(lines); {
		rec, n, ok := m(lines, i)
		if !ok || rank(rec) <= last {
			i++
			continue
		}
		last = rank(rec)
		out = append(out, match[T]{rec: rec, from: i, to: i + n})
		i += n
	}
	return out
}

func flightRank(f domain.FlightOption) int { return f.Rank }
func hotelRank(h domain.HotelOption) int   { return h.Rank }

// matchFlight: header, Departure, Return, Duration.
func matchFlight(lines []string, i int) (domain.FlightOption, int, bool) {
	if i+3 >= len(lines) {
		return domain.FlightOption{}, 0, false
	}
	h := flightHeaderRe.FindStringSubmatch(lines[i])
	dep := departureRe.FindStringSubmatch(lines[i+1])
	ret := returnRe.FindStringSubmatch(lines[i+2])
	dur := durationRe.FindStringSubmatch(lines[i+3])
	if h == nil || dep == nil || ret == nil || dur == nil {
		return domain.FlightOption{}, 0, false
	}
	rank, ok := parseRank(h[1])
	if !ok {
		return domain.FlightOption{}, 0, false
	}
	badges := strings.TrimSpace(h[4])
	f := domain.FlightOption{
		Rank:         rank,
		Carrier:      strings.TrimSpace(h[2]),
		Price:        parseAmount(h[3]),
		WithinBudget: hasIndicator(badges, glyphWithin, wordWithin),
		Badges:       badges,
		Departure:    dep[1],
		Return:       ret[1],
		Duration:     dur[1],
	}
	if l := layoversRe.FindStringSubmatch(dur[1]); l != nil {
		if n, err := strconv.Atoi(l[2]); err == nil {
			f.Duration = strings.TrimSpace(l[1])
			f.Layovers = n
		}
	}
	return f, 4, true
}

// matchAltFlight is matchFlight followed by a required Reason line.
func matchAltFlight(lines []string, i int) (domain.FlightOption, int, bool) {
	f, n, ok := matchFlight(lines, i)
	if !ok || i+n >= len(lines) {
		return domain.FlightOption{}, 0, false
	}
	r := reasonRe.FindStringSubmatch(lines[i+n])
	if r == nil {
		return domain.FlightOption{}, 0, false
	}
	f.Reason = r[1]
	return f, n + 1, true
}

// matchHotel: header, Rating, Total, and an optional 💰 note right after.
func matchHotel(lines []string, i int) (domain.HotelOption, int, bool) {
	if i+2 >= len(lines) {
		return domain.HotelOption{}, 0, false
	}
	h := hotelHeaderRe.FindStringSubmatch(lines[i])
	rt := ratingRe.FindStringSubmatch(lines[i+1])
	tot := totalRe.FindStringSubmatch(lines[i+2])
	if h == nil || rt == nil || tot == nil {
		return domain.HotelOption{}, 0, false
	}
	rank, ok := parseRank(h[1])
	if !ok {
		return domain.HotelOption{}, 0, false
	}
	badges := strings.TrimSpace(h[4])
	o := domain.HotelOption{
		Rank:           rank,
		Name:           strings.TrimSpace(h[2]),
		NightlyRate:    parseAmount(h[3]),
		WithinBudget:   hasIndicator(badges, glyphWithin, wordWithin),
		PreferredBrand: hasIndicator(badges, glyphPreferred, wordPreferred),
		Badges:         badges,
		Rating:         rt[1],
		TotalPrice:     parseAmount(tot[1]),
	}
	n := 3
	if i+n < len(lines) {
		if note := noteRe.FindStringSubmatch(lines[i+n]); note != nil {
			o.Special = note[1]
			n++
		}
	}
	return o, n, true
}

func parseRank(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseAmount keeps the text as written and fills Value when it reads as a
// plain number, thousands separators allowed.
func parseAmount(s string) domain.Amount {
	a := domain.Amount{Text: s}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		a.Value, a.Valid = v, true
	}
	return a
}

func hasIndicator(badges, glyph, phrase string) bool {
	return strings.Contains(badges, glyph) || strings.Contains(strings.ToLower(badges), phrase)
}
