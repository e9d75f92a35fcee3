package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSmokingStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected SmokingStatus
	}{
		{"", SmokingUnknown},
		{"  ", SmokingUnknown},
		{"Yes", SmokingCurrent},
		{"yes, a pack a day", SmokingCurrent},
		{"current", SmokingCurrent},
		{"No", SmokingNever},
		{"never", SmokingNever},
		{"Former smoker", SmokingFormer},
		{"quit in 2019", SmokingFormer},
		{"ex-smoker", SmokingFormer},
		{"exercise instead", SmokingNever},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSmokingStatus(tt.input))
		})
	}
}

func TestParseAlcoholStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected AlcoholStatus
		high     bool
	}{
		{"", AlcoholUnknown, false},
		{"Regular", AlcoholRegular, true},
		{"HEAVY", AlcoholHeavy, true},
		{"none", AlcoholNone, false},
		{"weekends", AlcoholOccasional, false},
		{"regularly on weekends", AlcoholOccasional, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			status := ParseAlcoholStatus(tt.input)
			assert.Equal(t, tt.expected, status)
			assert.Equal(t, tt.high, status.IsHighIntake())
		})
	}
}

func TestParseActivityAndGender(t *testing.T) {
	assert.Equal(t, ActivitySedentary, ParseActivityLevel(" Sedentary "))
	assert.Equal(t, ActivityActive, ParseActivityLevel("active"))
	assert.Equal(t, ActivityUnknown, ParseActivityLevel("very active"))

	assert.Equal(t, GenderMale, ParseGender("male"))
	assert.Equal(t, GenderFemale, ParseGender("F"))
	assert.Equal(t, GenderOther, ParseGender("non-binary"))
	assert.Equal(t, GenderUnspecified, ParseGender(""))
}

func TestNumberUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		present bool
		valid   bool
		value   float64
	}{
		{"number", `22.5`, true, true, 22.5},
		{"numeric string", `"31"`, true, true, 31},
		{"padded string", `" 7.5 "`, true, true, 7.5},
		{"null", `null`, false, false, 0},
		{"empty string", `""`, false, false, 0},
		{"garbage", `"abc"`, true, false, 0},
		{"NaN string", `"NaN"`, true, false, 0},
		{"object", `{}`, true, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &n))
			assert.Equal(t, tt.present, n.Present())
			assert.Equal(t, tt.valid, n.Valid())
			if tt.valid {
				v, ok := n.Float()
				assert.True(t, ok)
				assert.Equal(t, tt.value, v)
			}
		})
	}
}

func TestNumberOrAndMarshal(t *testing.T) {
	assert.Equal(t, 24.0, Number{}.Or(24))
	assert.Equal(t, 24.0, Num(math.NaN()).Or(24))
	assert.Equal(t, 31.0, Num(31).Or(24))

	data, err := json.Marshal(struct {
		A Number `json:"a"`
		B Number `json:"b"`
	}{A: Num(1.5), B: InvalidNumber()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(data))
}

func TestParseBloodPressure(t *testing.T) {
	tests := []struct {
		input string
		sys   float64
		dia   float64
		ok    bool
	}{
		{"120/80", 120, 80, true},
		{" 135 / 85 mmHg", 135, 85, true},
		{"118/76mmHg", 118, 76, true},
		{"120-80", 0, 0, false},
		{"120/", 0, 0, false},
		{"abc/80", 0, 0, false},
		{"120/80/60", 0, 0, false},
		{"NaN/80", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			bp, err := ParseBloodPressure(tt.input)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrMalformedBloodPressure)
				assert.False(t, bp.Valid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sys, bp.Systolic)
			assert.Equal(t, tt.dia, bp.Diastolic)
			assert.True(t, bp.Valid())
		})
	}
}

func TestUserProfileParamsDecoding(t *testing.T) {
	raw := `{
		"age": "52",
		"gender": "male",
		"bmi": 31.2,
		"bloodPressure": "142/91",
		"activityLevel": "sedentary",
		"sleepHours": "not sure",
		"smokingStatus": "Yes",
		"alcoholStatus": "heavy",
		"familyHistory": ["Heart disease"]
	}`

	var p UserProfileParams
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, 52.0, p.Age.Or(0))
	assert.Equal(t, GenderMale, p.Gender)
	assert.Equal(t, 31.2, p.BMI.Or(0))
	assert.Equal(t, BP(142, 91), p.BloodPressure)
	assert.Equal(t, ActivitySedentary, p.ActivityLevel)
	assert.True(t, p.SleepHours.Present())
	assert.False(t, p.SleepHours.Valid())
	assert.Equal(t, SmokingCurrent, p.SmokingStatus)
	assert.Equal(t, AlcoholHeavy, p.AlcoholStatus)
	assert.False(t, p.BloodSugar.Present())
	assert.Equal(t, []string{"Heart disease"}, p.FamilyHistory)
}

func TestMalformedBloodPressureDoesNotFailDecoding(t *testing.T) {
	var p UserProfileParams
	require.NoError(t, json.Unmarshal([]byte(`{"bloodPressure":"high"}`), &p))
	assert.False(t, p.BloodPressure.Valid())

	data, err := json.Marshal(p.BloodPressure)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestBreakdownSum(t *testing.T) {
	b := Breakdown{"Optimal BMI": 40, "Active Smoking": -100, "Optimal Sleep": 30}
	assert.InDelta(t, -30.0, b.Sum(), 1e-9)
	assert.Equal(t, 0.0, Breakdown{}.Sum())
}
