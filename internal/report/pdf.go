package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/seenimoa/newsimpact/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// PDF Generator: Markdown AST → fpdf
// ════════════════════════════════════════════════════════════════════

const (
	pdfFont      = "Arial"
	pdfFontSize  = 9.0
	pdfPageWidth = 190.0 // A4 minus margins
	pdfMaxRow    = 6     // max wrapped lines per table cell
)

// PDF renders the Markdown report into an A4 document.
func PDF(r *models.FinalReport, cfg ReportConfig) ([]byte, error) {
	md, err := Markdown(r, cfg)
	if err != nil {
		return nil, err
	}
	d := BuildData(r, cfg)
	return MarkdownToPDF(md, d.Title, d.Author)
}

// MarkdownToPDF lays out Markdown with the core PDF fonts. Headings,
// paragraphs, emphasis, lists and tables are supported.
func MarkdownToPDF(markdown, title, author string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.SetTitle(title, true)
	pdf.SetAuthor(author, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont(pdfFont, "I", 7)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Page %d · not investment advice", pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", pdfFontSize)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	rd := &pdfRenderer{
		pdf:    pdf,
		source: source,
		tr:     tr,
	}
	if err := ast.Walk(doc, rd.walk); err != nil {
		return nil, fmt.Errorf("report: laying out pdf: %w", err)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("report: laying out pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfRenderer struct {
	pdf    *fpdf.Fpdf
	source []byte
	tr     func(string) string
	bold   bool
	italic bool
	inList int
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(pdfFont, style, pdfFontSize)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			r.pdf.Ln(4)
			size := 10.0
			switch node.Level {
			case 1:
				size = 15
			case 2:
				size = 12
			}
			r.pdf.SetFont(pdfFont, "B", size)
		} else {
			r.pdf.Ln(7)
			r.updateFont()
		}
	case *ast.Paragraph:
		if !entering && r.inList == 0 {
			r.pdf.Ln(6)
		}
	case *ast.Text:
		if entering {
			r.write(string(node.Segment.Value(r.source)))
			if node.SoftLineBreak() || node.HardLineBreak() {
				r.pdf.Ln(5)
			}
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.updateFont()
	case *ast.List:
		if entering {
			r.inList++
		} else {
			r.inList--
			r.pdf.Ln(6)
		}
	case *ast.ListItem:
		if entering {
			r.pdf.Ln(5)
			r.pdf.SetX(12 + float64(r.inList)*4)
			r.write("- ")
		}
	case *extast.Table:
		if entering {
			r.table(node)
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) write(s string) {
	r.pdf.Write(5, r.tr(s))
}

// table draws a bordered grid with equal-width columns and wrapped cells.
func (r *pdfRenderer) table(n *extast.Table) {
	var rows [][]string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.(type) {
		case *extast.TableHeader, *extast.TableRow:
			var row []string
			for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
				row = append(row, r.tr(inlineText(cell, r.source)))
			}
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	cols := len(rows[0])
	width := pdfPageWidth / float64(cols)
	const lineH = 4.0

	r.pdf.Ln(2)
	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		r.pdf.SetFont(pdfFont, style, 8)

		lines := 1
		wrapped := make([][]string, cols)
		for j := 0; j < cols && j < len(row); j++ {
			wrapped[j] = r.pdf.SplitText(row[j], width-2)
			if len(wrapped[j]) > pdfMaxRow {
				wrapped[j] = wrapped[j][:pdfMaxRow]
			}
			lines = max(lines, len(wrapped[j]))
		}
		height := float64(lines)*lineH + 2

		_, pageH := r.pdf.GetPageSize()
		_, _, _, bottom := r.pdf.GetMargins()
		if r.pdf.GetY()+height > pageH-bottom-12 {
			r.pdf.AddPage()
		}

		x0, y0 := r.pdf.GetX(), r.pdf.GetY()
		for j := 0; j < cols; j++ {
			x := x0 + float64(j)*width
			if i == 0 {
				r.pdf.SetFillColor(230, 230, 230)
				r.pdf.Rect(x, y0, width, height, "FD")
			} else {
				r.pdf.Rect(x, y0, width, height, "D")
			}
			for k, line := range wrapped[j] {
				r.pdf.SetXY(x+1, y0+1+float64(k)*lineH)
				r.pdf.CellFormat(width-2, lineH, line, "", 0, "L", false, 0, "")
			}
		}
		r.pdf.SetXY(x0, y0+height)
	}
	r.pdf.Ln(3)
	r.updateFont()
}

// inlineText concatenates the text segments below n.
func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
