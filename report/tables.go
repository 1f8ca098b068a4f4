package report

import (
	"fmt"
	"strings"

	"github.com/minios-linux/ibkit/i18n"
	"github.com/minios-linux/ibkit/langmeta"
	"github.com/minios-linux/ibkit/record"
)

// Records prints one line per record, grouped under its source file.
func (c *Console) Records(records []record.Record) {
	if len(records) == 0 {
		c.Info(i18n.T("No elements with i18n_enabled found"))
		return
	}

	source := "\x00"
	enabled := 0
	for _, r := range records {
		if r.Source != source {
			source = r.Source
			if source != "" {
				c.printf("\n%s\n", c.paint(colorBlue, source))
			}
		}
		state := c.paint(colorGreen, "✔︎")
		if r.Enabled {
			enabled++
		} else {
			state = c.paint(colorRed, "✘")
		}
		id := r.OriginalID
		if id == "" {
			id = c.paint(colorYellow, i18n.T("(no id)"))
		}
		c.printf("  %s %-12s %s\n", state, id, c.paint(colorGray, r.FormattedInfo()))
	}
	c.printf("\n%s\n", fmt.Sprintf(i18n.T("%d element(s), %d enabled, %d disabled"), len(records), enabled, len(records)-enabled))
}

// Languages prints the project languages with their display names.
func (c *Console) Languages(project string, langs []string) {
	c.Heading(fmt.Sprintf(i18n.T("Languages of %s"), project))
	c.printf("%-4s %-10s %-24s %s\n", "", i18n.T("Code"), i18n.T("Name"), i18n.T("English"))
	c.printf("%s\n", strings.Repeat("─", 60))
	for _, l := range langs {
		m := langmeta.Resolve(l)
		flag := m.Flag
		if flag == "" {
			flag = "  "
		}
		c.printf("%-4s %-10s %-24s %s\n", flag, m.Code, m.Name, m.English)
	}
	c.printf("%s\n", strings.Repeat("─", 60))
	c.printf(i18n.N("%d language\n", "%d languages\n", len(langs)), len(langs))
}
