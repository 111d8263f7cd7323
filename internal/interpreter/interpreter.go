// Package interpreter recovers the structured report fragments (visa and
// weather notes, ranked flight and hotel listings, alternatives) from the
// free text an assistant reply is made of. Everything it does not recognize
// is handed back untouched as narrative.
//
// The matchers are independent and best-effort: every historical layout of
// the upstream text (plain prose, prose with notes, itemized cards) parses
// without a version switch. Interpret is pure and safe for concurrent use.
package interpreter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"travel_genie/internal/domain"
)

var (
	foundRe = regexp.MustCompile(`(?i)\((\d+)\s+found\)`)

	priceRangeRe   = regexp.MustCompile(`(?i)^\s*Price range:\s*\$(\S+?)\s*-\s*\$(\S+)`)
	softBudgetRe   = regexp.MustCompile(`(?i)^\s*Within soft budget[^:]*:\s*(\d+)\s+options?`)
	rateRangeRe    = regexp.MustCompile(`(?i)^\s*Nightly rate range:\s*\$(\S+?)\s*-\s*\$(\S+)`)
	hotelBudgetRe  = regexp.MustCompile(`(?i)^\s*Within your budget:\s*(\d+)\s+options?`)
	preferredRe    = regexp.MustCompile(`(?i)^\s*Preferred brands available:\s*(\d+)\s+options?`)
	topFlightsRe   = regexp.MustCompile(`(?i)^\s*📋\s*Top\s+\d+\s+Flight Options`)
	topHotelsRe    = regexp.MustCompile(`(?i)^\s*📋\s*Top\s+\d+\s+Hotel Options`)
	altFlightSubRe = regexp.MustCompile(`(?i)^\s*📋\s*Alternative Flight\b`)
	altHotelSubRe  = regexp.MustCompile(`(?i)^\s*📋\s*Alternative Hotel\b`)
)

// Interpret parses one assistant message. It always returns a complete
// value: text without any recognized marker comes back as narrative only.
func Interpret(text string) (ps domain.ParsedSections) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("len", len(text)).Msg("interpreter recovered; falling back to narrative")
			ps = empty()
			ps.NarrativeLines = newDocument(text).remainder()
		}
	}()

	d := newDocument(text)
	ps = empty()
	spans := segment(d)

	if sp, ok := spans[markVisa]; ok {
		ps.VisaNote = note(d, sp)
	}
	if sp, ok := spans[markWeather]; ok {
		ps.WeatherNote = note(d, sp)
	}
	if sp, ok := spans[markFlights]; ok {
		ps.FlightSummary, ps.TopFlights = flights(d, sp)
	}
	if sp, ok := spans[markHotels]; ok {
		ps.HotelSummary, ps.TopHotels = hotels(d, sp)
	}
	if sp, ok := spans[markAlternative]; ok {
		ps.AlternativeFlight, ps.AlternativeHotel = alternatives(d, sp)
	}

	ps.NarrativeLines = d.remainder()
	return ps
}

func empty() domain.ParsedSections {
	return domain.ParsedSections{
		TopFlights:     []domain.FlightOption{},
		TopHotels:      []domain.HotelOption{},
		NarrativeLines: []string{},
	}
}

// note takes a free-text body verbatim, trimmed. Blank lines around the
// text stay in the narrative.
func note(d *document, sp span) *string {
	first, last := -1, -1
	for i := sp.start; i < sp.end; i++ {
		if strings.TrimSpace(d.lines[i]) == "" {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return nil
	}
	s := strings.TrimSpace(strings.Join(d.lines[first:last+1], "\n"))
	d.use(sp.header, sp.header+1)
	d.use(first, last+1)
	return &s
}

func flights(d *document, sp span) (*domain.FlightSummary, []domain.FlightOption) {
	var sum domain.FlightSummary
	have := false
	if n, ok := count(foundRe, d.lines[sp.header]); ok {
		sum.Found, have = &n, true
	}
	if i, m := find(d, sp, priceRangeRe); i >= 0 {
		sum.PriceRange = &domain.PriceRange{Low: parseAmount(m[1]), High: parseAmount(m[2])}
		d.use(i, i+1)
		have = true
	}
	if i, n := findCount(d, sp, softBudgetRe); i >= 0 {
		sum.WithinBudgetCount = &n
		d.use(i, i+1)
		have = true
	}

	top := listStart(d, sp, topFlightsRe)
	recs := scan(d.lines[top.start:sp.end], matchFlight, flightRank)
	out := make([]domain.FlightOption, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.rec)
		d.use(top.start+r.from, top.start+r.to)
	}
	if len(out) > 0 && top.header >= 0 {
		d.use(top.header, top.header+1)
	}

	if have || len(out) > 0 {
		d.use(sp.header, sp.header+1)
	}
	if !have {
		return nil, out
	}
	return &sum, out
}

func hotels(d *document, sp span) (*domain.HotelSummary, []domain.HotelOption) {
	var sum domain.HotelSummary
	have := false
	if n, ok := count(foundRe, d.lines[sp.header]); ok {
		sum.Found, have = &n, true
	}
	if i, m := find(d, sp, rateRangeRe); i >= 0 {
		sum.RateRange = &domain.PriceRange{Low: parseAmount(m[1]), High: parseAmount(m[2])}
		d.use(i, i+1)
		have = true
	}
	if i, n := findCount(d, sp, hotelBudgetRe); i >= 0 {
		sum.WithinBudgetCount = &n
		d.use(i, i+1)
		have = true
	}
	if i, n := findCount(d, sp, preferredRe); i >= 0 {
		sum.PreferredCount = &n
		d.use(i, i+1)
		have = true
	}

	top := listStart(d, sp, topHotelsRe)
	recs := scan(d.lines[top.start:sp.end], matchHotel, hotelRank)
	out := make([]domain.HotelOption, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.rec)
		d.use(top.start+r.from, top.start+r.to)
	}
	if len(out) > 0 && top.header >= 0 {
		d.use(top.header, top.header+1)
	}

	if have || len(out) > 0 {
		d.use(sp.header, sp.header+1)
	}
	if !have {
		return nil, out
	}
	return &sum, out
}

// alternatives looks for the flight and hotel sub-headers independently and
// reads at most one record under each.
func alternatives(d *document, sp span) (*domain.FlightOption, *domain.HotelOption) {
	var (
		fl *domain.FlightOption
		ho *domain.HotelOption
	)
	if sub, _ := find(d, sp, altFlightSubRe); sub >= 0 {
		if at := nextNonBlank(d, sub+1, sp.end); at >= 0 {
			if f, n, ok := matchAltFlight(d.lines[:sp.end], at); ok {
				fl = &f
				d.use(sub, sub+1)
				d.use(at, at+n)
			}
		}
	}
	if sub, _ := find(d, sp, altHotelSubRe); sub >= 0 {
		if at := nextNonBlank(d, sub+1, sp.end); at >= 0 {
			if h, n, ok := matchHotel(d.lines[:sp.end], at); ok {
				ho = &h
				d.use(sub, sub+1)
				d.use(at, at+n)
			}
		}
	}
	if fl != nil || ho != nil {
		d.use(sp.header, sp.header+1)
	}
	return fl, ho
}

// listStart returns where record scanning begins: right after the "Top N"
// sub-header when there is one, otherwise at the top of the body. Older
// generator output has no sub-header. header is -1 in the latter case.
func listStart(d *document, sp span, sub *regexp.Regexp) span {
	if i, _ := find(d, sp, sub); i >= 0 {
		return span{header: i, start: i + 1, end: sp.end}
	}
	return span{header: -1, start: sp.start, end: sp.end}
}

// find returns the first unused body line matching re with its submatches.
func find(d *document, sp span, re *regexp.Regexp) (int, []string) {
	for i := sp.start; i < sp.end; i++ {
		if d.used[i] {
			continue
		}
		if m := re.FindStringSubmatch(d.lines[i]); m != nil {
			return i, m
		}
	}
	return -1, nil
}

func findCount(d *document, sp span, re *regexp.Regexp) (int, int) {
	for i := sp.start; i < sp.end; i++ {
		if d.used[i] {
			continue
		}
		if n, ok := count(re, d.lines[i]); ok {
			return i, n
		}
	}
	return -1, 0
}

func count(re *regexp.Regexp, line string) (int, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func nextNonBlank(d *document, from, to int) int {
	for i := from; i < to; i++ {
		if strings.TrimSpace(d.lines[i]) != "" {
			return i
		}
	}
	return -1
}
