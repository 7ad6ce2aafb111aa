package llm

import (
	"fmt"
	"strings"
)

// OutputSchema describes the JSON object a structured call must return.
type OutputSchema struct {
	Name        string        // Schema name (e.g., "ClusterSummaries")
	Description string        // System preamble describing the task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the structured output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint shown to the model
	Description string
	Required    bool
}

// BuildJSONPrompt renders the output structure followed by the input block.
func BuildJSONPrompt(schema OutputSchema, input string) string {
	var sb strings.Builder

	if schema.Description != "" {
		sb.WriteString(schema.Description)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "\"string\""
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Base every statement on the input, do not invent facts.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Input:\n\"\"\"\n")
	sb.WriteString(input)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// ClusterSummarySchema is the output structure of the batched cluster summary call.
func ClusterSummarySchema() OutputSchema {
	return OutputSchema{
		Name: "ClusterSummaries",
		Description: `You are a news editor. Each numbered cluster below groups articles that report the same story.
For every cluster write a one or two sentence overview and up to four short factual bullets.`,
		Fields: []SchemaField{
			{
				Name:        "clusters",
				Type:        `[{"index": 0, "overview": "string", "bullets": ["string"]}]`,
				Description: "one entry per cluster, index matching the cluster number",
				Required:    true,
			},
		},
	}
}

// HeadlineReviewSchema is the output structure of the editorial review call.
func HeadlineReviewSchema() OutputSchema {
	return OutputSchema{
		Name: "HeadlineReviews",
		Description: `You are a senior news editor reviewing candidate headlines for publication.
Judge each numbered headline for newsworthiness, clarity and accuracy of framing.`,
		Fields: []SchemaField{
			{
				Name:        "reviews",
				Type:        `[{"index": 0, "verdict": "keep|drop", "score": 0, "reason": "string"}]`,
				Description: "one entry per headline; score from 0 to 10",
				Required:    true,
			},
		},
	}
}
