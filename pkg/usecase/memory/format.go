package memory

import (
	"fmt"
	"strings"

	"github.com/atelierhq/decormem/pkg/model"
)

// Format renders the context as a prompt block for the conversational
// layer. Empty sections are omitted so the block stays compact.
func (c *Context) Format() string {
	var b strings.Builder

	if c.LatestVersion != nil {
		b.WriteString("## Current Design\n")
		fmt.Fprintf(&b, "Version %d: %s\n", c.LatestVersion.VersionNumber, c.LatestVersion.Description)
		if c.LatestVersion.Selected {
			b.WriteString("(selected by the user)\n")
		}
		b.WriteString("\n")
	}

	if c.Referenced != nil {
		fmt.Fprintf(&b, "## Referenced Room: %s\n", c.Referenced.Room.Name)
		if v := c.Referenced.SelectedVersion; v != nil {
			fmt.Fprintf(&b, "Selected design (version %d): %s\n", v.VersionNumber, v.Description)
		} else {
			b.WriteString("No design selected yet.\n")
		}
		b.WriteString("\n")
	}

	if len(c.Preferences) > 0 {
		b.WriteString("## User Preferences\n")
		for _, line := range summarizePreferences(c.Preferences) {
			b.WriteString("- " + line + "\n")
		}
		b.WriteString("\n")
	}

	if len(c.Records) > 0 {
		b.WriteString("## Relevant Past Conversations\n")
		for _, r := range c.Records {
			fmt.Fprintf(&b, "- [%s] %s\n", r.Record.Role, r.Record.Text)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// summarizePreferences groups preferences by type, strongest first
// within each group, preserving the overall strength ordering of types
// as they first appear.
func summarizePreferences(prefs []*model.Preference) []string {
	grouped := make(map[model.PreferenceType][]string)
	var order []model.PreferenceType
	for _, p := range prefs {
		if _, ok := grouped[p.Type]; !ok {
			order = append(order, p.Type)
		}
		grouped[p.Type] = append(grouped[p.Type], fmt.Sprintf("%s (%.2f)", p.Value, p.Confidence))
	}

	lines := make([]string, 0, len(order))
	for _, t := range order {
		lines = append(lines, fmt.Sprintf("%s: %s", t, strings.Join(grouped[t], ", ")))
	}
	return lines
}
