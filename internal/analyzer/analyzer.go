package analyzer

import (
	"context"
	"fmt"
	"strings"
)

// Completer produces a markdown analysis for a table preview
type Completer interface {
	Analyze(ctx context.Context, preview string, columns []string) (string, error)
}

// NotConfiguredMessage is what visitors see when no AI credential is set.
// Served as the analysis body so the rest of the flow still works.
const NotConfiguredMessage = "Gemini API key not configured. Set GEMINI_API_KEY as an environment variable."

// Unconfigured is the degraded Completer used when no API key is present
type Unconfigured struct{}

func (Unconfigured) Analyze(ctx context.Context, preview string, columns []string) (string, error) {
	return NotConfiguredMessage, nil
}

func buildPrompt(preview string, columns []string) string {
	return fmt.Sprintf(`You are a senior data analyst. The user uploaded a CSV.
Analyze only the preview shown and propose immediate next steps.

# CSV PREVIEW (first rows)

%s

# COLUMNS

%s

Respond in markdown with three sections:
1. **Cleaning steps** - concrete issues visible in the preview and how to fix them.
2. **SQL queries** - useful starting queries against this table.
3. **Dashboard recommendations** - charts worth building and why.`,
		preview, strings.Join(columns, ", "))
}
