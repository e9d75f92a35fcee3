// Package domain contains the core entities exchanged with the health analytics engine:
// user profile parameters, evaluator inputs and the scored results returned to callers.
//
// Free-text attributes (smoking, alcohol, activity, gender) are parsed once at the JSON
// boundary into closed enums so the evaluators never match on raw strings.
package domain

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Trend is the direction of a health credit score relative to its baseline.
type Trend string

const (
	TrendUp   Trend = "UP"
	TrendDown Trend = "DOWN"
)

// RiskStatus summarises disease risk percentages.
type RiskStatus string

const (
	StatusWarning RiskStatus = "WARNING"
	StatusClear   RiskStatus = "CLEAR"
)

// RiskBand is a three-level tier used by the mental health and genetic evaluators.
type RiskBand string

const (
	RiskLow      RiskBand = "Low"
	RiskModerate RiskBand = "Moderate"
	RiskHigh     RiskBand = "High"
)

// LifestyleTier classifies a lifestyle score.
type LifestyleTier string

const (
	TierOptimal  LifestyleTier = "Optimal"
	TierBalanced LifestyleTier = "Balanced"
	TierHighRisk LifestyleTier = "High Risk"
)

// Gender as reported by the user.
type Gender string

const (
	GenderUnspecified Gender = ""
	GenderMale        Gender = "Male"
	GenderFemale      Gender = "Female"
	GenderOther       Gender = "Other"
)

// ParseGender maps free text onto a Gender. Unknown values become GenderOther,
// empty values GenderUnspecified.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return GenderUnspecified
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	default:
		return GenderOther
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (g *Gender) UnmarshalJSON(data []byte) error {
	s, err := looseString(data)
	if err != nil {
		return err
	}
	*g = ParseGender(s)
	return nil
}

// ActivityLevel is the self-reported physical activity level.
type ActivityLevel string

const (
	ActivityUnknown   ActivityLevel = ""
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityActive    ActivityLevel = "active"
)

// ParseActivityLevel maps free text onto an ActivityLevel. Values outside the
// known set become ActivityUnknown and contribute nothing to any score.
func ParseActivityLevel(s string) ActivityLevel {
	switch a := ActivityLevel(strings.ToLower(strings.TrimSpace(s))); a {
	case ActivitySedentary, ActivityLight, ActivityModerate, ActivityActive:
		return a
	default:
		return ActivityUnknown
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (a *ActivityLevel) UnmarshalJSON(data []byte) error {
	s, err := looseString(data)
	if err != nil {
		return err
	}
	*a = ParseActivityLevel(s)
	return nil
}

// SmokingStatus is the closed form of the free-text smoking answer.
type SmokingStatus string

const (
	SmokingUnknown SmokingStatus = ""
	SmokingNever   SmokingStatus = "never"
	SmokingFormer  SmokingStatus = "former"
	SmokingCurrent SmokingStatus = "current"
)

// ParseSmokingStatus parses a free-text smoking answer. Any answer containing
// "yes" is a current smoker; this is the only status that affects scores.
func ParseSmokingStatus(s string) SmokingStatus {
	text := strings.ToLower(strings.TrimSpace(s))
	switch {
	case text == "":
		return SmokingUnknown
	case strings.Contains(text, "yes"), text == string(SmokingCurrent):
		return SmokingCurrent
	case strings.Contains(text, "former"), strings.Contains(text, "quit"), strings.HasPrefix(text, "ex-"):
		return SmokingFormer
	default:
		return SmokingNever
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (s *SmokingStatus) UnmarshalJSON(data []byte) error {
	text, err := looseString(data)
	if err != nil {
		return err
	}
	*s = ParseSmokingStatus(text)
	return nil
}

// AlcoholStatus is the closed form of the free-text alcohol answer.
type AlcoholStatus string

const (
	AlcoholUnknown    AlcoholStatus = ""
	AlcoholNone       AlcoholStatus = "none"
	AlcoholOccasional AlcoholStatus = "occasional"
	AlcoholRegular    AlcoholStatus = "regular"
	AlcoholHeavy      AlcoholStatus = "heavy"
)

// ParseAlcoholStatus parses a free-text alcohol answer. Only exact
// "regular" and "heavy" (case-insensitive) are treated as high-intake answers.
func ParseAlcoholStatus(s string) AlcoholStatus {
	switch text := strings.ToLower(strings.TrimSpace(s)); text {
	case "":
		return AlcoholUnknown
	case "regular":
		return AlcoholRegular
	case "heavy":
		return AlcoholHeavy
	case "never", "none", "no":
		return AlcoholNone
	default:
		return AlcoholOccasional
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (a *AlcoholStatus) UnmarshalJSON(data []byte) error {
	text, err := looseString(data)
	if err != nil {
		return err
	}
	*a = ParseAlcoholStatus(text)
	return nil
}

// IsHighIntake reports whether the alcohol status is penalised.
func (a AlcoholStatus) IsHighIntake() bool {
	return a == AlcoholRegular || a == AlcoholHeavy
}

// Number is a tolerant numeric field. It accepts JSON numbers, numeric strings
// and null, and records whether the field was present and whether it parsed.
// Garbage never fails decoding; it yields a present but invalid Number.
type Number struct {
	value   float64
	present bool
	valid   bool
}

// Num returns a present Number. NaN and infinities are marked invalid.
func Num(v float64) Number {
	return Number{value: v, present: true, valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}

// InvalidNumber returns a present Number that failed to parse.
func InvalidNumber() Number {
	return Number{present: true}
}

// Present reports whether the field was supplied at all.
func (n Number) Present() bool { return n.present }

// Valid reports whether the field holds a finite number.
func (n Number) Valid() bool { return n.valid }

// Float returns the value and whether it is usable.
func (n Number) Float() (float64, bool) {
	return n.value, n.valid
}

// Or returns the value, or def when the number is missing or invalid.
func (n Number) Or(def float64) float64 {
	if !n.valid {
		return def
	}
	return n.value
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*n = Number{}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Num(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*n = Number{}
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*n = Num(f)
			return nil
		}
	}

	*n = InvalidNumber()
	return nil
}

// MarshalJSON implements json.Marshaler
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

// BloodPressure is a parsed "SYS/DIA" reading.
type BloodPressure struct {
	Systolic  float64
	Diastolic float64
	valid     bool
}

// ErrMalformedBloodPressure is returned by ParseBloodPressure for readings
// that are not two finite numbers separated by a slash.
var ErrMalformedBloodPressure = errors.New("malformed blood pressure reading")

// BP returns a valid reading.
func BP(systolic, diastolic float64) BloodPressure {
	return BloodPressure{Systolic: systolic, Diastolic: diastolic, valid: true}
}

// ParseBloodPressure parses readings like "120/80" or " 135 / 85 mmHg".
func ParseBloodPressure(s string) (BloodPressure, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return BloodPressure{}, ErrMalformedBloodPressure
	}
	sys, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return BloodPressure{}, ErrMalformedBloodPressure
	}
	diaText := strings.TrimSpace(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(parts[1])), "mmhg"))
	dia, err := strconv.ParseFloat(diaText, 64)
	if err != nil {
		return BloodPressure{}, ErrMalformedBloodPressure
	}
	reading := BP(sys, dia)
	if !reading.Valid() {
		return BloodPressure{}, ErrMalformedBloodPressure
	}
	return reading, nil
}

// Valid reports whether both components are usable.
func (b BloodPressure) Valid() bool {
	return b.valid && isFinite(b.Systolic) && isFinite(b.Diastolic)
}

// String formats the reading back to "SYS/DIA".
func (b BloodPressure) String() string {
	if !b.Valid() {
		return ""
	}
	return strconv.FormatFloat(b.Systolic, 'f', -1, 64) + "/" + strconv.FormatFloat(b.Diastolic, 'f', -1, 64)
}

// UnmarshalJSON implements json.Unmarshaler. Malformed readings decode to an
// invalid BloodPressure rather than failing the whole request.
func (b *BloodPressure) UnmarshalJSON(data []byte) error {
	s, err := looseString(data)
	if err != nil {
		return err
	}
	reading, err := ParseBloodPressure(s)
	if err != nil {
		*b = BloodPressure{}
		return nil
	}
	*b = reading
	return nil
}

// MarshalJSON implements json.Marshaler
func (b BloodPressure) MarshalJSON() ([]byte, error) {
	if !b.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(b.String())
}

// looseString decodes a JSON string, treating null and non-string scalars as text.
func looseString(data []byte) (string, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		return strconv.FormatBool(b), nil
	}
	return "", nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
