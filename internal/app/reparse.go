package app

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"travel_genie/internal/domain"
	"travel_genie/internal/interpreter"
)

// Format is the generation of upstream text a message looks like.
type Format string

const (
	FormatPlain Format = "plain" // prose only
	FormatNotes Format = "notes" // prose with visa/weather notes or summaries
	FormatCards Format = "cards" // itemized flight/hotel records
)

func Classify(ps domain.ParsedSections) Format {
	switch {
	case len(ps.TopFlights) > 0 || len(ps.TopHotels) > 0 || ps.AlternativeFlight != nil || ps.AlternativeHotel != nil:
		return FormatCards
	case ps.Structured():
		return FormatNotes
	}
	return FormatPlain
}

// ReparseReport counts what the interpreter recovers from the archive.
type ReparseReport struct {
	Messages       int            `json:"messages"`
	Formats        map[Format]int `json:"formats"`
	VisaNotes      int            `json:"visaNotes"`
	WeatherNotes   int            `json:"weatherNotes"`
	FlightSummary  int            `json:"flightSummaries"`
	Flights        int            `json:"flights"`
	HotelSummary   int            `json:"hotelSummaries"`
	Hotels         int            `json:"hotels"`
	AltFlights     int            `json:"alternativeFlights"`
	AltHotels      int            `json:"alternativeHotels"`
	NarrativeLines int            `json:"narrativeLines"`
}

func (r *ReparseReport) add(ps domain.ParsedSections) {
	r.Messages++
	r.Formats[Classify(ps)]++
	if ps.VisaNote != nil {
		r.VisaNotes++
	}
	if ps.WeatherNote != nil {
		r.WeatherNotes++
	}
	if ps.FlightSummary != nil {
		r.FlightSummary++
	}
	if ps.HotelSummary != nil {
		r.HotelSummary++
	}
	if ps.AlternativeFlight != nil {
		r.AltFlights++
	}
	if ps.AlternativeHotel != nil {
		r.AltHotels++
	}
	r.Flights += len(ps.TopFlights)
	r.Hotels += len(ps.TopHotels)
	r.NarrativeLines += len(ps.NarrativeLines)
}

// Reparser re-interprets archived assistant messages with bounded
// concurrency.
type Reparser struct {
	archive  domain.TranscriptRepository
	workers  int64
	pageSize int
	observe  func(structured bool)
}

func NewReparser(archive domain.TranscriptRepository, workers int, observe func(bool)) *Reparser {
	if workers <= 0 {
		workers = 1
	}
	if observe == nil {
		observe = func(bool) {}
	}
	return &Reparser{archive: archive, workers: int64(workers), pageSize: 200, observe: observe}
}

// Run walks the archive in insertion order. limit <= 0 means everything.
func (p *Reparser) Run(ctx context.Context, limit int) (ReparseReport, error) {
	rep := ReparseReport{Formats: map[Format]int{}}
	sem := semaphore.NewWeighted(p.workers)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	var after int64
	seen := 0
	for limit <= 0 || seen < limit {
		page, err := p.archive.ListByRole(ctx, domain.RoleAssistant, domain.ArchiveQuery{Limit: p.pageSize, AfterSeq: after})
		if err != nil {
			wg.Wait()
			return rep, err
		}
		for _, m := range page.Items {
			if limit > 0 && seen >= limit {
				break
			}
			seen++

			// acquire before launching the goroutine; release inside it
			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return rep, err
			}
			wg.Add(1)
			go func(text string) {
				defer wg.Done()
				defer sem.Release(1)

				ps := interpreter.Interpret(text)
				p.observe(ps.Structured())
				mu.Lock()
				rep.add(ps)
				mu.Unlock()
			}(m.Content)
		}
		if page.NextSeq == nil {
			break
		}
		after = *page.NextSeq
	}

	wg.Wait()
	return rep, nil
}
