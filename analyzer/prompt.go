package analyzer

import (
	"fmt"
	"strings"
)

// Task identifies which operation a prompt belongs to.
type Task string

const (
	TaskAnalysis    Task = "analysis"
	TaskSuggestions Task = "suggestions"
)

// Prompt is the message pair sent to the LLM.
type Prompt struct {
	Task   Task
	System string
	User   string
}

// BuildAnalysisPrompt embeds the review verbatim and pins the model to a three-field JSON object.
func BuildAnalysisPrompt(text string) Prompt {
	labels := make([]string, len(Sentiments))
	for i, s := range Sentiments {
		labels[i] = fmt.Sprintf("%q", s)
	}

	var sb strings.Builder
	sb.WriteString("Your task is to analyze the following product review and return a JSON object in a fixed format.\n\n")
	sb.WriteString("Review: \"" + text + "\"\n\n")
	sb.WriteString("Instructions:\n")
	sb.WriteString(fmt.Sprintf("1. Determine the overall sentiment. It MUST be exactly one of %s.\n", strings.Join(labels, ", ")))
	sb.WriteString("2. Identify the key aspects mentioned (short words or phrases taken from the review).\n")
	sb.WriteString("3. Write a brief summary.\n\n")
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Respond ONLY with a valid JSON object.\n")
	sb.WriteString("- Do not include explanations or any additional text.\n")
	sb.WriteString("- The object must have exactly the fields \"sentiment\", \"aspects\" and \"summary\".\n")
	sb.WriteString("- Use exactly this structure:\n\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"sentiment\": \"positive\",\n")
	sb.WriteString("  \"aspects\": [\"aspect1\", \"aspect2\"],\n")
	sb.WriteString("  \"summary\": \"brief summary\"\n")
	sb.WriteString("}")

	return Prompt{
		Task:   TaskAnalysis,
		System: "You are a JSON generator. Output only a JSON object.",
		User:   sb.String(),
	}
}

// BuildSuggestionPrompt asks for three actionable improvements, one per line.
func BuildSuggestionPrompt(aspects AspectBag) Prompt {
	var sb strings.Builder
	sb.WriteString("Based on these aspects of a product:\n")
	sb.WriteString(fmt.Sprintf("Positive: %s\n", strings.Join(aspects.Positive, ", ")))
	sb.WriteString(fmt.Sprintf("Negative: %s\n\n", strings.Join(aspects.Negative, ", ")))
	sb.WriteString("Generate 3 concrete improvement suggestions.\n")
	sb.WriteString("Each suggestion must be specific and actionable.\n")
	sb.WriteString("Respond only with the suggestions, one per line.")

	return Prompt{
		Task: TaskSuggestions,
		User: sb.String(),
	}
}
