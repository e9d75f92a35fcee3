package explain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var topicTitles = map[string]string{
	TopicCreditScore:  "health credit score",
	TopicDiseaseRisk:  "disease risk estimate",
	TopicMentalHealth: "mental wellness score",
	TopicLifestyle:    "lifestyle score",
	TopicGeneticRisk:  "inherited risk estimate",
	TopicLabs:         "lab result summary",
}

// BuildPrompt renders the request as a user prompt. Field order is sorted so
// identical requests produce identical prompts.
func BuildPrompt(req Request) string {
	title, ok := topicTitles[req.Topic]
	if !ok {
		title = "health score"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Explain the following %s to the user in plain language.\n\n", title))
	sb.WriteString(fmt.Sprintf("Score: %s\n", strconv.FormatFloat(req.Score, 'f', -1, 64)))
	if req.Label != "" {
		sb.WriteString(fmt.Sprintf("Category: %s\n", req.Label))
	}

	if len(req.Fields) > 0 {
		keys := make([]string, 0, len(req.Fields))
		for k := range req.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("\nSupporting data:\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", k, req.Fields[k]))
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Use at most three sentences.\n")
	sb.WriteString("- Only mention numbers that appear above. Do not estimate or invent figures.\n")
	sb.WriteString("- Do not diagnose. Suggest talking to a clinician for anything concerning.\n")

	return sb.String()
}
