package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockLLM returns a canned article shaped like the editor's output, for local
// runs without a model. The planner and writer stages get a short echo.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	var sb strings.Builder
	switch {
	case strings.Contains(prompt.System, "You are Editor."):
		sb.WriteString("# Industry Roundtable: Key Insights\n\n")
		sb.WriteString("This report summarises the discussion captured in the supplied transcripts.\n\n")
		sb.WriteString("**Industry Trends**\n\n")
		sb.WriteString("Participants described steady consolidation across the sector.\n\n")
		sb.WriteString("**Technological Impacts**\n\n")
		sb.WriteString("Automation is reshaping day-to-day operations.\n\n")
		sb.WriteString("**Regulatory Considerations**\n\n")
		sb.WriteString("Several leaders flagged uncertainty around upcoming rules.\n\n")
		sb.WriteString("**Future Outlook**\n\n")
		sb.WriteString("The group expects cautious growth over the next three years.\n\n")
		sb.WriteString("**Conclusion**\n\n")
		sb.WriteString("The transcripts point to an industry adapting deliberately to change.\n")
	default:
		fmt.Fprintf(&sb, "Draft output (%d characters of context).\n", len(prompt.User))
	}
	return sb.String(), nil
}
