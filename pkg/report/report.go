// Package report renders a triage summary of a project's bins, first as
// Markdown and then as HTML through goldmark.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/jlrickert/contammap/pkg/project"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Input is what a report is built from.
type Input struct {
	ProjectID string
	Title     string
	Contigs   int
	Motifs    int
	Bins      []mag.BinSummary
}

// ForProject collects the report data of an open project.
func ForProject(p *project.Project) Input {
	return Input{
		ProjectID: p.ID(),
		Title:     p.Config().Title,
		Contigs:   len(p.Contigs()),
		Motifs:    len(p.Motifs()),
		Bins:      p.Summaries(),
	}
}

// Markdown writes the report as a Markdown document. Bins keep the order they
// are given in.
func Markdown(in Input) []byte {
	var b bytes.Buffer

	title := in.Title
	if title == "" {
		title = in.ProjectID
	}
	fmt.Fprintf(&b, "# %s\n\n", escape(title))
	fmt.Fprintf(&b, "Project `%s`: %d bins, %d methylated contigs, %d motifs.\n\n",
		in.ProjectID, len(in.Bins), in.Contigs, in.Motifs)

	totals := make(map[string]int, len(mag.Assignments))
	byQuality := map[string]int{}
	for _, s := range in.Bins {
		for code, n := range s.Assignments {
			totals[code] += n
		}
		byQuality[qualityCode(s.Quality)]++
	}

	b.WriteString("## Progress\n\n")
	b.WriteString("| Assignment | Contigs |\n|---|---:|\n")
	for _, a := range mag.Assignments {
		fmt.Fprintf(&b, "| %s | %d |\n", a.Code(), totals[a.Code()])
	}
	b.WriteString("\n")

	b.WriteString("## Bins by quality\n\n")
	b.WriteString("| Quality | Bins |\n|---|---:|\n")
	for _, q := range []string{mag.HQ.Code(), mag.MQ.Code(), mag.LQ.Code(), "-"} {
		if byQuality[q] == 0 {
			continue
		}
		fmt.Fprintf(&b, "| %s | %d |\n", q, byQuality[q])
	}
	b.WriteString("\n")

	b.WriteString("## Bins\n\n")
	if len(in.Bins) == 0 {
		b.WriteString("No bins.\n")
		return b.Bytes()
	}
	b.WriteString("| Bin | Quality | Completeness | Contamination | Contigs")
	for _, a := range mag.Assignments {
		b.WriteString(" | " + a.Code())
	}
	b.WriteString(" |\n|---|---|---:|---:|---:")
	for range mag.Assignments {
		b.WriteString("|---:")
	}
	b.WriteString("|\n")
	for _, s := range in.Bins {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d",
			escape(string(s.ID)),
			qualityCode(s.Quality),
			percent(s.Completeness),
			percent(s.Contamination),
			s.Contigs,
		)
		for _, a := range mag.Assignments {
			fmt.Fprintf(&b, " | %d", s.Assignments[a.Code()])
		}
		b.WriteString(" |\n")
	}
	return b.Bytes()
}

// HTML converts a Markdown document to an HTML fragment.
func HTML(markdown []byte) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var out bytes.Buffer
	if err := md.Convert(markdown, &out); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return out.Bytes(), nil
}

// Render builds the report and returns it as a standalone HTML page.
func Render(in Input) ([]byte, error) {
	body, err := HTML(Markdown(in))
	if err != nil {
		return nil, err
	}
	title := in.Title
	if title == "" {
		title = in.ProjectID
	}
	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", htmlEscape(title))
	page.WriteString("</head>\n<body>\n")
	page.Write(body)
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

func qualityCode(q *mag.Quality) string {
	if q == nil {
		return "-"
	}
	return q.Code()
}

func percent(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

var mdEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`", "<", "&lt;", ">", "&gt;")

// escape keeps ids from being read as table separators or emphasis.
func escape(s string) string {
	return mdEscaper.Replace(s)
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func htmlEscape(s string) string {
	return htmlEscaper.Replace(s)
}
