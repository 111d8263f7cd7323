package domain

// Profile is a traveller preset the upstream recommender is asked to use.
type Profile struct {
	ID                 string     `json:"id"`
	Label              string     `json:"label"`
	Citizenship        string     `json:"citizenship"`
	PreferredTempRange [2]float64 `json:"preferredTempRange"`
	AirfareBudgetSoft  float64    `json:"airfareBudgetSoft"`
	AirfareBudgetHard  float64    `json:"airfareBudgetHard"`
	HotelBudgetMin     float64    `json:"hotelBudgetMin"`
	HotelBudgetMax     float64    `json:"hotelBudgetMax"`
	PreferredBrands    []string   `json:"preferredBrands"`
	TripLengthDays     int        `json:"tripLengthDays"`
	ComfortLevel       string     `json:"comfortLevel"`
	FlexibilityDays    int        `json:"flexibilityDays"`
	SafetyConscious    bool       `json:"safetyConscious"`
}

const DefaultProfileID = "user_123"

// ProfileTable is an explicit lookup keyed by profile id.
type ProfileTable map[string]Profile

// Builtin returns a fresh copy of the presets offered by the profile picker.
func Builtin() ProfileTable {
	return ProfileTable{
		"user_123": {
			ID:                 "user_123",
			Label:              "Comfort Traveler (USA)",
			Citizenship:        "USA",
			PreferredTempRange: [2]float64{75, 85},
			AirfareBudgetSoft:  600,
			AirfareBudgetHard:  900,
			HotelBudgetMin:     150,
			HotelBudgetMax:     300,
			PreferredBrands:    []string{"Marriott", "Hilton"},
			TripLengthDays:     7,
			ComfortLevel:       "comfort",
			FlexibilityDays:    5,
			SafetyConscious:    true,
		},
		"default": {
			ID:                 "default",
			Label:              "Standard Traveler (USA)",
			Citizenship:        "USA",
			PreferredTempRange: [2]float64{70, 80},
			AirfareBudgetSoft:  500,
			AirfareBudgetHard:  800,
			HotelBudgetMin:     100,
			HotelBudgetMax:     250,
			PreferredBrands:    []string{},
			TripLengthDays:     5,
			ComfortLevel:       "standard",
			FlexibilityDays:    3,
			SafetyConscious:    false,
		},
	}
}

func (t ProfileTable) Lookup(id string) (Profile, error) {
	p, ok := t[id]
	if !ok {
		return Profile{}, ErrUnknownProfile
	}
	return p, nil
}
