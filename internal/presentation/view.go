// Package presentation projects interpreted sections into display cards and
// paragraphs. It holds no state and never re-reads the raw text.
package presentation

type CardKind string

const (
	CardVisa         CardKind = "visa"
	CardWeather      CardKind = "weather"
	CardFlights      CardKind = "flights"
	CardHotels       CardKind = "hotels"
	CardAlternatives CardKind = "alternatives"
)

type Tone string

const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneStar    Tone = "star"
)

type Emphasis string

const (
	EmphasisNone      Emphasis = ""
	EmphasisPrimary   Emphasis = "primary"
	EmphasisSecondary Emphasis = "secondary"
	EmphasisWarning   Emphasis = "warning"
)

type View struct {
	Paragraphs []Paragraph `json:"paragraphs"`
	Cards      []Card      `json:"cards"`
}

type Card struct {
	Kind    CardKind `json:"kind"`
	Icon    string   `json:"icon"`
	Title   string   `json:"title"`
	Badge   string   `json:"badge,omitempty"`
	Text    string   `json:"text,omitempty"`
	Options []Option `json:"options,omitempty"`
}

type Option struct {
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Price       string   `json:"price"`
	Unit        string   `json:"unit,omitempty"`
	Badges      []Badge  `json:"badges"`
	Details     []Detail `json:"details"`
	Alternative bool     `json:"alternative,omitempty"`
}

type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Paragraph is one narrative line. Break marks a blank source line.
type Paragraph struct {
	Text     string   `json:"text,omitempty"`
	Emphasis Emphasis `json:"emphasis,omitempty"`
	Break    bool     `json:"break,omitempty"`
}
