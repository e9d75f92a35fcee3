package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// Input schemas are written by hand. The domain types decode numbers from
// strings and nulls, which schema inference cannot express.

func object(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

func numeric(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Types:       []string{"number", "string", "null"},
		Description: description,
	}
}

func text(description string, enum ...string) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: "string", Description: description}
	for _, v := range enum {
		s.Enum = append(s.Enum, v)
	}
	return s
}

func stringList(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Description: description,
		Items:       &jsonschema.Schema{Type: "string"},
	}
}

func explainFlag() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "boolean",
		Description: "Attach a short plain-language explanation of the score",
	}
}

func profileProperties() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"age":           numeric("Age in years"),
		"gender":        text("Male, Female or Other"),
		"bmi":           numeric("Body mass index"),
		"bloodPressure": text(`Blood pressure as "systolic/diastolic", e.g. "120/80"`),
		"bloodSugar":    numeric("Fasting blood sugar in mg/dL"),
		"activityLevel": text("sedentary, light, moderate or active"),
		"sleepHours":    numeric("Average hours of sleep per night"),
		"smokingStatus": text("Free text such as never, former or current"),
		"alcoholStatus": text("Free text such as none, occasional, moderate or heavy"),
		"familyHistory": stringList("Conditions present in the family"),
		"explain":       explainFlag(),
	}
}

func profileSchema() *jsonschema.Schema {
	return object(profileProperties())
}

func mentalHealthSchema() *jsonschema.Schema {
	return object(map[string]*jsonschema.Schema{
		"moodLogs": {
			Type:        "array",
			Description: "Recent daily mood ratings on a 1 to 5 scale",
			Items:       &jsonschema.Schema{Types: []string{"number", "string", "null"}},
		},
		"sleepHoursAvg": numeric("Average hours of sleep per night"),
		"explain":       explainFlag(),
	})
}

func lifestyleSchema() *jsonschema.Schema {
	return object(map[string]*jsonschema.Schema{
		"mealsPerDay":     numeric("Meals eaten per day"),
		"waterIntake":     numeric("Glasses of water per day"),
		"exerciseMinutes": numeric("Minutes of exercise per day"),
		"sugarIntake":     text("Sugar intake", "low", "moderate", "high"),
		"vegIntake":       text("Vegetable intake", "low", "moderate", "high"),
		"explain":         explainFlag(),
	})
}

func familyTreeSchema() *jsonschema.Schema {
	member := object(map[string]*jsonschema.Schema{
		"relation":   text("Relation to the user, e.g. parent, sibling, grandparent"),
		"conditions": stringList("Diagnosed conditions"),
	}, "relation")

	return object(map[string]*jsonschema.Schema{
		"familyTree": {
			Type:        "array",
			Description: "Relatives and their diagnosed conditions",
			Items:       member,
		},
		"explain": explainFlag(),
	}, "familyTree")
}

func labResultsSchema() *jsonschema.Schema {
	result := object(map[string]*jsonschema.Schema{
		"testName": text("Name of the lab test, e.g. HbA1c or LDL cholesterol"),
		"value":    numeric("Measured value"),
		"unit":     text("Unit of the measured value"),
	}, "testName")

	return object(map[string]*jsonschema.Schema{
		"labResults": {
			Type:        "array",
			Description: "Lab measurements to interpret",
			Items:       result,
		},
		"explain": explainFlag(),
	}, "labResults")
}

func reportSchema() *jsonschema.Schema {
	profile := object(profileProperties())
	delete(profile.Properties, "explain")

	return object(map[string]*jsonschema.Schema{
		"userId":       text("Identifier of the user the report belongs to"),
		"profile":      profile,
		"mentalHealth": mentalHealthSchema(),
		"lifestyle":    lifestyleSchema(),
		"familyTree":   familyTreeSchema().Properties["familyTree"],
		"labResults":   labResultsSchema().Properties["labResults"],
		"explain":      explainFlag(),
	}, "userId")
}

func historySchema() *jsonschema.Schema {
	return object(map[string]*jsonschema.Schema{
		"userId": text("Identifier of the user"),
		"limit": {
			Type:        "integer",
			Description: "Maximum number of snapshots to return, newest first (default 20)",
		},
	}, "userId")
}

func importSchema() *jsonschema.Schema {
	return object(map[string]*jsonschema.Schema{
		"file_path": text("Path to the JSON file to import"),
		"user_id":   text("Owner of a legacy string-encoded history file"),
	}, "file_path")
}

func emptySchema() *jsonschema.Schema {
	return object(map[string]*jsonschema.Schema{})
}
