package release

import (
	"strings"
	"time"
)

const (
	nfoRule   = "============================================================"
	nfoFooter = "Generated by torrentify"
	// AddedOnLayout is the timestamp layout of the Added On line (UTC).
	AddedOnLayout = "2006-01-02 15:04:05"
)

// FormatNFO frames a media report with the release header and footer.
func FormatNFO(name string, added time.Time, report string) string {
	var b strings.Builder
	b.WriteString(nfoRule + "\n")
	b.WriteString("Release Name : " + name + "\n")
	b.WriteString("Added On    : " + added.UTC().Format(AddedOnLayout) + "\n")
	b.WriteString(nfoRule + "\n\n")
	b.WriteString(strings.TrimSpace(report))
	b.WriteString("\n\n" + nfoRule + "\n")
	b.WriteString(nfoFooter + "\n")
	b.WriteString(nfoRule)
	return b.String()
}
