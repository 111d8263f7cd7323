package domain

// Amount is a currency value as written in the assistant text.
// Text is always kept; Value is only meaningful when Valid.
type Amount struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

type PriceRange struct {
	Low  Amount `json:"low"`
	High Amount `json:"high"`
}

type FlightSummary struct {
	PriceRange        *PriceRange `json:"priceRange,omitempty"`
	WithinBudgetCount *int        `json:"withinBudgetCount,omitempty"`
	Found             *int        `json:"found,omitempty"`
}

type HotelSummary struct {
	RateRange         *PriceRange `json:"rateRange,omitempty"`
	WithinBudgetCount *int        `json:"withinBudgetCount,omitempty"`
	PreferredCount    *int        `json:"preferredCount,omitempty"`
	Found             *int        `json:"found,omitempty"`
}

type FlightOption struct {
	Rank         int    `json:"rank"`
	Carrier      string `json:"carrier"`
	Price        Amount `json:"price"`
	WithinBudget bool   `json:"withinBudget"`
	Badges       string `json:"badges,omitempty"`
	Departure    string `json:"departure"`
	Return       string `json:"return"`
	Duration     string `json:"duration"`
	Layovers     int    `json:"layovers"`
	Reason       string `json:"reason,omitempty"` // alternatives only
}

type HotelOption struct {
	Rank           int    `json:"rank"`
	Name           string `json:"name"`
	NightlyRate    Amount `json:"nightlyRate"`
	WithinBudget   bool   `json:"withinBudget"`
	PreferredBrand bool   `json:"preferredBrand"`
	Badges         string `json:"badges,omitempty"`
	Rating         string `json:"rating"`
	TotalPrice     Amount `json:"totalPrice"`
	Special        string `json:"special,omitempty"`
}

// ParsedSections is the structure recovered from one assistant message.
// It is derived on every render and never stored.
type ParsedSections struct {
	VisaNote          *string        `json:"visaNote,omitempty"`
	WeatherNote       *string        `json:"weatherNote,omitempty"`
	FlightSummary     *FlightSummary `json:"flightSummary,omitempty"`
	TopFlights        []FlightOption `json:"topFlights"`
	HotelSummary      *HotelSummary  `json:"hotelSummary,omitempty"`
	TopHotels         []HotelOption  `json:"topHotels"`
	AlternativeFlight *FlightOption  `json:"alternativeFlight,omitempty"`
	AlternativeHotel  *HotelOption   `json:"alternativeHotel,omitempty"`
	NarrativeLines    []string       `json:"narrativeLines"`
}

// Structured reports whether any field besides the narrative was recovered.
func (p ParsedSections) Structured() bool {
	return p.VisaNote != nil || p.WeatherNote != nil ||
		p.FlightSummary != nil || len(p.TopFlights) > 0 ||
		p.HotelSummary != nil || len(p.TopHotels) > 0 ||
		p.AlternativeFlight != nil || p.AlternativeHotel != nil
}
