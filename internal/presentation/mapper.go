package presentation

import (
	"strings"

	"github.com/samber/lo"

	"travel_genie/internal/domain"
)

const warnGlyph = "⚠"

// Render maps one interpreted message to its view.
func Render(ps domain.ParsedSections) View {
	v := View{
		Paragraphs: lo.Map(ps.NarrativeLines, func(l string, _ int) Paragraph { return paragraph(l) }),
		Cards:      []Card{},
	}

	if ps.VisaNote != nil {
		v.Cards = append(v.Cards, Card{Kind: CardVisa, Icon: "🛂", Title: "Visa & Entry Requirements", Text: *ps.VisaNote})
	}
	if ps.WeatherNote != nil {
		v.Cards = append(v.Cards, Card{Kind: CardWeather, Icon: "🌤️", Title: "Weather Forecast", Text: *ps.WeatherNote})
	}
	if ps.FlightSummary != nil || len(ps.TopFlights) > 0 {
		c := Card{
			Kind:    CardFlights,
			Icon:    "✈️",
			Title:   "Top Flight Options",
			Options: lo.Map(ps.TopFlights, func(f domain.FlightOption, _ int) Option { return flightOption(f) }),
		}
		if ps.FlightSummary != nil && ps.FlightSummary.PriceRange != nil {
			c.Badge = rangeText(*ps.FlightSummary.PriceRange)
		}
		v.Cards = append(v.Cards, c)
	}
	if ps.HotelSummary != nil || len(ps.TopHotels) > 0 {
		c := Card{
			Kind:    CardHotels,
			Icon:    "🏨",
			Title:   "Top Hotel Options",
			Options: lo.Map(ps.TopHotels, func(h domain.HotelOption, _ int) Option { return hotelOption(h) }),
		}
		if ps.HotelSummary != nil && ps.HotelSummary.RateRange != nil {
			c.Badge = rangeText(*ps.HotelSummary.RateRange) + "/night"
		}
		v.Cards = append(v.Cards, c)
	}
	if ps.AlternativeFlight != nil || ps.AlternativeHotel != nil {
		c := Card{Kind: CardAlternatives, Icon: "🔄", Title: "Alternative Options"}
		if ps.AlternativeFlight != nil {
			o := flightOption(*ps.AlternativeFlight)
			o.Alternative = true
			c.Options = append(c.Options, o)
		}
		if ps.AlternativeHotel != nil {
			o := hotelOption(*ps.AlternativeHotel)
			o.Alternative = true
			c.Options = append(c.Options, o)
		}
		v.Cards = append(v.Cards, c)
	}
	return v
}

func paragraph(line string) Paragraph {
	if strings.TrimSpace(line) == "" {
		return Paragraph{Break: true}
	}
	return Paragraph{Text: line, Emphasis: emphasis(line)}
}

// emphasis: first match wins, in this order.
func emphasis(line string) Emphasis {
	l := strings.ToLower(line)
	switch {
	case strings.Contains(l, "recommended"):
		return EmphasisPrimary
	case strings.Contains(l, "alternative"):
		return EmphasisSecondary
	case strings.Contains(l, "why not"), strings.Contains(l, "rejected"):
		return EmphasisWarning
	}
	return EmphasisNone
}

func flightOption(f domain.FlightOption) Option {
	o := Option{
		Number: f.Rank,
		Title:  f.Carrier,
		Price:  "$" + f.Price.Text,
		Badges: []Badge{},
		Details: []Detail{
			{Label: "🛫 Departure", Value: f.Departure},
			{Label: "🛬 Return", Value: f.Return},
			{Label: "⏱️ Duration", Value: f.Duration},
		},
	}
	if f.WithinBudget {
		o.Badges = append(o.Badges, Badge{Label: "Within Budget", Tone: ToneSuccess})
	}
	if strings.Contains(f.Badges, warnGlyph) {
		o.Badges = append(o.Badges, Badge{Label: "Over Budget", Tone: ToneWarning})
	}
	if f.Reason != "" {
		o.Details = append(o.Details, Detail{Label: "💡 Reason", Value: f.Reason})
	}
	return o
}

func hotelOption(h domain.HotelOption) Option {
	o := Option{
		Number: h.Rank,
		Title:  h.Name,
		Price:  "$" + h.NightlyRate.Text,
		Unit:   "/night",
		Badges: []Badge{},
		Details: []Detail{
			{Label: "⭐ Rating", Value: h.Rating},
			{Label: "💰 Total", Value: "$" + h.TotalPrice.Text},
		},
	}
	if h.WithinBudget {
		o.Badges = append(o.Badges, Badge{Label: "Within Budget", Tone: ToneSuccess})
	}
	if strings.Contains(h.Badges, warnGlyph) {
		o.Badges = append(o.Badges, Badge{Label: "Outside Budget", Tone: ToneWarning})
	}
	if h.PreferredBrand {
		o.Badges = append(o.Badges, Badge{Label: "Preferred", Tone: ToneStar})
	}
	if h.Special != "" {
		o.Details = append(o.Details, Detail{Label: "💡", Value: h.Special})
	}
	return o
}

func rangeText(r domain.PriceRange) string {
	return "$" + r.Low.Text + " - $" + r.High.Text
}
