package htmlutil

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("tbnreports/lib/htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CellText extracts the visible text of a cell: non-printable
// characters stripped, inner runs of whitespace collapsed.
func CellText(sel *goquery.Selection) string {
	text := sel.Text()
	text = removeNonPrintable(text)
	text = strings.Trim(text, " \t\n")
	text = innerWhitespace.ReplaceAllString(text, " ")
	return text
}

// Table is the row/column form of an html <table>. Headers come from
// the first row containing <th> cells (or the very first row when the
// table has no header cells at all).
type Table struct {
	Headers []string
	Rows    [][]string
}

// ParseTable converts the first table in the selection into row/column
// form. Returns nil when the selection contains no table.
func ParseTable(ctx context.Context, sel *goquery.Selection) *Table {
	_, span := tracer.Start(ctx, "ParseTable")
	defer span.End()

	table := sel.Find("table").First()
	if table.Length() == 0 {
		if goquery.NodeName(sel) != "table" {
			return nil
		}
		table = sel
	}

	out := &Table{}
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		isHeader := tr.Find("th").Length() > 0
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, CellText(cell))
		})
		if len(cells) == 0 {
			return
		}
		if out.Headers == nil && isHeader {
			out.Headers = cells
			return
		}
		if out.Headers == nil && len(out.Rows) == 0 && len(cells) > 0 {
			// headerless table, treat the first row as the header
			out.Headers = cells
			return
		}
		out.Rows = append(out.Rows, cells)
	})

	span.SetAttributes(
		attribute.Int("columns", len(out.Headers)),
		attribute.Int("rows", len(out.Rows)),
	)
	return out
}
