/*
Package report prints ranking results as console tables.
*/
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/logrusorgru/aurora"
	"github.com/olekukonko/tablewriter"

	"similarity-lab/ranker"
	"similarity-lab/recommend"
)

/*
Printer writes titled result tables to w. Colors are only used for titles
and summaries, never inside tables.
*/
type Printer struct {
	w  io.Writer
	au aurora.Aurora
}

func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, au: aurora.NewAurora(color)}
}

// Title prints a highlighted heading.
func (p *Printer) Title(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "\n%s\n", p.au.BrightCyan(fmt.Sprintf(format, args...)))
}

// Summary prints a count with a duration, e.g. "13 words loaded in 2ms".
func (p *Printer) Summary(count int, what string, took time.Duration) {
	fmt.Fprintf(p.w, "%s %s loaded in %v\n",
		p.au.BrightGreen(humanize.Comma(int64(count))), what, p.au.BrightYellow(took.Round(time.Microsecond)))
}

// Size prints a byte count in human readable form.
func (p *Printer) Size(what string, bytes uint64) {
	fmt.Fprintf(p.w, "%s: %s\n", what, p.au.BrightGreen(humanize.Bytes(bytes)))
}

// Results prints a rank, id, name and score table.
func (p *Printer) Results(title string, results []ranker.ScoredResult) {
	p.Title("%s", title)
	tw := p.table([]string{"#", "id", "name", "score"})
	for i, r := range results {
		name := r.Meta.Name
		if name == "" {
			name = r.ID
		}
		tw.Append([]string{humanize.Ordinal(i + 1), r.ID, name, formatScore(r.Score)})
	}
	tw.Render()
}

// Products prints product matches with their category and tags.
func (p *Printer) Products(title string, matches []recommend.ProductMatch) {
	p.Title("%s", title)
	tw := p.table([]string{"#", "id", "name", "category", "tags", "score"})
	for i, m := range matches {
		tw.Append([]string{
			humanize.Ordinal(i + 1),
			strconv.Itoa(m.Product.ID),
			m.Product.Name,
			m.Product.Category,
			strings.Join(m.Product.Tags, ", "),
			formatScore(m.Score),
		})
	}
	tw.Render()
}

// Recipes prints recipe matches with their genre and ingredients.
func (p *Printer) Recipes(title string, matches []recommend.RecipeMatch) {
	p.Title("%s", title)
	tw := p.table([]string{"#", "recipe", "genre", "ingredients", "score"})
	for i, m := range matches {
		tw.Append([]string{
			humanize.Ordinal(i + 1),
			m.Recipe.Name,
			m.Recipe.Genre,
			strings.Join(m.Recipe.Ingredients, ", "),
			formatScore(m.Score),
		})
	}
	tw.Render()
}

// Attributes prints aggregated attribute scores.
func (p *Printer) Attributes(title string, attrs []ranker.AttributeScore) {
	p.Title("%s", title)
	tw := p.table([]string{"#", "attribute", "score"})
	for i, a := range attrs {
		tw.Append([]string{humanize.Ordinal(i + 1), a.Name, formatScore(a.Score)})
	}
	tw.Render()
}

// Items prints item indices with their predicted scores.
func (p *Printer) Items(title string, items []int, scores []float64) {
	p.Title("%s", title)
	tw := p.table([]string{"#", "item", "score"})
	for i, item := range items {
		score := ""
		if i < len(scores) {
			score = strconv.FormatFloat(scores[i], 'f', 4, 64)
		}
		tw.Append([]string{humanize.Ordinal(i + 1), strconv.Itoa(item), score})
	}
	tw.Render()
}

// List prints a plain list of names, e.g. missing ingredients.
func (p *Printer) List(title string, names []string) {
	p.Title("%s", title)
	if len(names) == 0 {
		fmt.Fprintln(p.w, p.au.Gray(12, "(none)"))
		return
	}
	for _, n := range names {
		fmt.Fprintf(p.w, "  - %s\n", n)
	}
}

func (p *Printer) table(header []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(p.w)
	tw.SetHeader(header)
	tw.SetAutoWrapText(false)
	return tw
}

func formatScore(score float32) string {
	return strconv.FormatFloat(float64(score), 'f', 4, 32)
}
