// Package report renders a FinalReport for people and machines: Markdown,
// HTML (with SVG charts), PDF, plain text, JSON and YAML.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"github.com/seenimoa/newsimpact/internal/analysis/sentiment"
	"github.com/seenimoa/newsimpact/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Formats
// ════════════════════════════════════════════════════════════════════

// Format specifies the output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatText     Format = "text"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatMarkdown, FormatHTML, FormatPDF, FormatText}
}

// ParseFormat accepts a format name or a common alias ("md", "yml", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("report: unknown format %q", s)
}

// Extension returns the file extension for the format, with the dot.
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatMarkdown:
		return ".md"
	case FormatHTML:
		return ".html"
	case FormatPDF:
		return ".pdf"
	case FormatText:
		return ".txt"
	default:
		return ".json"
	}
}

// ReportConfig controls report generation behaviour.
type ReportConfig struct {
	Title    string      // custom report title (optional)
	Author   string      // author name (default: "newsimpact")
	ChartCfg ChartConfig // chart rendering config
}

// DefaultReportConfig returns sensible defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Author:   "newsimpact",
		ChartCfg: DefaultChartConfig(),
	}
}

// Render writes r to w in format f.
func Render(w io.Writer, r *models.FinalReport, f Format, cfg ReportConfig) error {
	if r == nil {
		return fmt.Errorf("report: nil report")
	}

	var (
		out []byte
		err error
	)
	switch f {
	case FormatJSON:
		out, err = JSON(r)
	case FormatYAML:
		out, err = YAML(r)
	case FormatMarkdown:
		var s string
		s, err = Markdown(r, cfg)
		out = []byte(s)
	case FormatHTML:
		var s string
		s, err = HTML(r, cfg)
		out = []byte(s)
	case FormatPDF:
		out, err = PDF(r, cfg)
	case FormatText:
		out = []byte(Text(r, cfg))
	default:
		return fmt.Errorf("report: unknown format %q", f)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// JSON returns the report as indented JSON.
func JSON(r *models.FinalReport) ([]byte, error) {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: encoding json: %w", err)
	}
	return append(out, '\n'), nil
}

// YAML returns the report as YAML.
func YAML(r *models.FinalReport) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("report: encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("report: encoding yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// ════════════════════════════════════════════════════════════════════
// Report Data: Flattened for template rendering
// ════════════════════════════════════════════════════════════════════

// ReportData is the template model shared by every human-readable format.
type ReportData struct {
	Title       string
	Author      string
	GeneratedAt string
	RunID       string

	Ticker           string
	Company          string
	Window           string
	ArticlesAnalyzed int

	Positive     int
	Negative     int
	Neutral      int
	MeanPolarity float64
	Agreement    string // lexicon vs model, e.g. "2 of 3"

	Overall    string
	Conclusion string

	Articles          []ArticleRow
	Returns           []ReturnRow
	StrongestPositive []string
	StrongestNegative []string
	Unannotated       []string
}

// ArticleRow is one annotated article.
type ArticleRow struct {
	Title      string
	URL        string
	Sentiment  string
	Polarity   string
	Lexicon    string
	Impact     string
	Confidence string
	Rationale  string
}

// ReturnRow is one event return.
type ReturnRow struct {
	Title     string
	URL       string
	EventDate string
	PreClose  string
	PostClose string
	ReturnPct string
	Class     string // "positive", "negative" or ""
}

// BuildData flattens r for the templates.
func BuildData(r *models.FinalReport, cfg ReportConfig) ReportData {
	items := r.ImpactSummary.PerArticle
	pos, neg, neu := models.CountSentiments(items)

	d := ReportData{
		Title:             cfg.Title,
		Author:            cfg.Author,
		RunID:             r.RunID,
		Ticker:            r.Ticker,
		Company:           r.Company,
		Window:            r.Window,
		ArticlesAnalyzed:  r.ArticlesAnalyzed,
		Positive:          pos,
		Negative:          neg,
		Neutral:           neu,
		MeanPolarity:      models.MeanPolarity(items),
		Overall:           strings.TrimSpace(r.ImpactSummary.OverallAssessment),
		Conclusion:        strings.TrimSpace(r.Conclusion),
		StrongestPositive: r.ImpactSummary.StrongestPositive,
		StrongestNegative: r.ImpactSummary.StrongestNegative,
		Unannotated:       r.UnannotatedURLs,
	}
	if d.Title == "" {
		d.Title = fmt.Sprintf("News impact: %s (%s)", r.Company, r.Ticker)
	}
	if d.Author == "" {
		d.Author = "newsimpact"
	}
	if !r.GeneratedAt.IsZero() {
		d.GeneratedAt = r.GeneratedAt.UTC().Format("02 Jan 2006, 15:04 UTC")
	}
	if agree, total := sentiment.Agreement(items); total > 0 {
		d.Agreement = fmt.Sprintf("%d of %d", agree, total)
	}

	for _, si := range items {
		row := ArticleRow{
			Title:      si.Title,
			URL:        si.URL,
			Sentiment:  string(si.Sentiment),
			Polarity:   fmt.Sprintf("%+.2f", si.Polarity),
			Lexicon:    "n/a",
			Impact:     string(si.ExpectedImpact),
			Confidence: fmt.Sprintf("%.0f%%", si.Confidence*100),
			Rationale:  si.Rationale,
		}
		if si.LexiconPolarity != nil {
			row.Lexicon = fmt.Sprintf("%+.2f", *si.LexiconPolarity)
		}
		d.Articles = append(d.Articles, row)
	}

	for _, er := range r.EventReturns {
		row := ReturnRow{
			Title:     er.Title,
			URL:       er.URL,
			EventDate: er.EventDate,
			PreClose:  formatPrice(er.PreClose),
			PostClose: formatPrice(er.PostClose),
			ReturnPct: "n/a",
		}
		if er.ReturnPct != nil {
			row.ReturnPct = fmt.Sprintf("%+.3f%%", *er.ReturnPct)
			switch {
			case *er.ReturnPct > 0:
				row.Class = "positive"
			case *er.ReturnPct < 0:
				row.Class = "negative"
			}
		}
		d.Returns = append(d.Returns, row)
	}
	return d
}

func formatPrice(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *p)
}

// ════════════════════════════════════════════════════════════════════
// Markdown + HTML
// ════════════════════════════════════════════════════════════════════

var markdownTmpl = texttemplate.Must(texttemplate.New("markdown").Funcs(texttemplate.FuncMap{
	"cell": mdCell,
}).Parse(MarkdownTemplate))

var htmlTmpl = template.Must(template.New("report").Parse(HTMLTemplate))

// Markdown renders the report as GitHub-flavoured Markdown.
func Markdown(r *models.FinalReport, cfg ReportConfig) (string, error) {
	if r == nil {
		return "", fmt.Errorf("report: nil report")
	}
	var buf bytes.Buffer
	if err := markdownTmpl.Execute(&buf, BuildData(r, cfg)); err != nil {
		return "", fmt.Errorf("report: executing markdown template: %w", err)
	}
	return buf.String(), nil
}

// htmlPage is the model of the HTML shell.
type htmlPage struct {
	Title       string
	Ticker      string
	Company     string
	Window      string
	GeneratedAt string
	Author      string
	Gauge       template.HTML
	Chart       template.HTML
	Body        template.HTML
}

// HTML renders the Markdown report to HTML with goldmark and wraps it in a
// standalone page with the polarity gauge and the returns chart.
func HTML(r *models.FinalReport, cfg ReportConfig) (string, error) {
	md, err := Markdown(r, cfg)
	if err != nil {
		return "", err
	}

	conv := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Linkify))
	var body bytes.Buffer
	if err := conv.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("report: converting markdown: %w", err)
	}

	d := BuildData(r, cfg)
	page := htmlPage{
		Title:       d.Title,
		Ticker:      d.Ticker,
		Company:     d.Company,
		Window:      d.Window,
		GeneratedAt: d.GeneratedAt,
		Author:      d.Author,
		Gauge:       template.HTML(PolarityGauge(d.MeanPolarity, "mean polarity", 220)),
		Chart:       template.HTML(ReturnsChart(r.EventReturns, cfg.ChartCfg)),
		Body:        template.HTML(body.String()),
	}

	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("report: executing html template: %w", err)
	}
	return buf.String(), nil
}

// mdCell makes s safe inside a Markdown table cell.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

// Text renders a terminal-friendly summary.
func Text(r *models.FinalReport, cfg ReportConfig) string {
	d := BuildData(r, cfg)

	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Title))
	if d.GeneratedAt != "" {
		sb.WriteString(fmt.Sprintf("  Generated: %s | Run: %s\n", d.GeneratedAt, d.RunID))
	}
	sb.WriteString(line + "\n\n")

	sb.WriteString(fmt.Sprintf("  %s (%s) | %s\n", d.Company, d.Ticker, d.Window))
	sb.WriteString(fmt.Sprintf("  Articles: %d | Positive: %d | Negative: %d | Neutral: %d | Mean polarity: %+.2f\n",
		d.ArticlesAnalyzed, d.Positive, d.Negative, d.Neutral, d.MeanPolarity))
	if d.Agreement != "" {
		sb.WriteString(fmt.Sprintf("  Lexicon agrees with model on %s articles\n", d.Agreement))
	}
	sb.WriteString(thinLine + "\n")

	if len(d.Articles) > 0 {
		sb.WriteString("\n  ■ ARTICLES\n")
		for _, a := range d.Articles {
			sb.WriteString(fmt.Sprintf("    [%-8s %s] %s\n", a.Sentiment, a.Polarity, a.Title))
		}
		sb.WriteString(thinLine + "\n")
	}

	if len(d.Returns) > 0 {
		sb.WriteString("\n  ■ EVENT RETURNS\n")
		for _, er := range d.Returns {
			sb.WriteString(fmt.Sprintf("    %s  %8s → %-8s %10s  %s\n", er.EventDate, er.PreClose, er.PostClose, er.ReturnPct, er.Title))
		}
		sb.WriteString(thinLine + "\n")
	}

	if d.Overall != "" {
		sb.WriteString("\n  ■ ASSESSMENT\n")
		sb.WriteString(fmt.Sprintf("  %s\n", d.Overall))
	}
	sb.WriteString("\n  ■ CONCLUSION\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Conclusion))

	if len(d.Unannotated) > 0 {
		sb.WriteString(fmt.Sprintf("\n  Not annotated: %s\n", strings.Join(d.Unannotated, ", ")))
	}

	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  Disclaimer: generated for educational purposes. Not financial advice.\n")
	sb.WriteString(line + "\n")

	return sb.String()
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
