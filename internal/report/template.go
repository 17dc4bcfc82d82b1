package report

// MarkdownTemplate renders ReportData. It is the single source for the
// Markdown, HTML and PDF outputs.
const MarkdownTemplate = `# {{.Title}}

**Ticker:** {{.Ticker}} · **Company:** {{.Company}} · **Window:** {{.Window}}
{{- if .GeneratedAt}}
*Generated {{.GeneratedAt}}{{if .RunID}} · run {{.RunID}}{{end}}*
{{- end}}

## Summary

| Articles | Positive | Negative | Neutral | Mean polarity |
|---:|---:|---:|---:|---:|
| {{.ArticlesAnalyzed}} | {{.Positive}} | {{.Negative}} | {{.Neutral}} | {{printf "%+.2f" .MeanPolarity}} |
{{if .Agreement}}
Lexicon and model agree on the tone of {{.Agreement}} articles.
{{end}}
{{- if .Overall}}
{{.Overall}}
{{end}}
{{- if .Articles}}
## Articles

| Title | Sentiment | Polarity | Lexicon | Impact | Confidence | Rationale |
|---|---|---:|---:|---|---:|---|
{{- range .Articles}}
| {{if .URL}}[{{cell .Title}}]({{.URL}}){{else}}{{cell .Title}}{{end}} | {{.Sentiment}} | {{.Polarity}} | {{.Lexicon}} | {{.Impact}} | {{.Confidence}} | {{cell .Rationale}} |
{{- end}}
{{end}}
{{- if .Returns}}
## Event returns

| Date | Title | Pre close | Post close | Return |
|---|---|---:|---:|---:|
{{- range .Returns}}
| {{.EventDate}} | {{cell .Title}} | {{.PreClose}} | {{.PostClose}} | {{.ReturnPct}} |
{{- end}}
{{end}}
{{- if or .StrongestPositive .StrongestNegative}}
## Strongest signals
{{range .StrongestPositive}}
- positive: {{.}}
{{- end}}
{{- range .StrongestNegative}}
- negative: {{.}}
{{- end}}
{{end}}
## Conclusion

{{.Conclusion}}
{{if .Unannotated}}
## Not annotated
{{range .Unannotated}}
- {{.}}
{{- end}}
{{end}}`

// HTMLTemplate is the standalone page around the rendered Markdown body.
const HTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 960px;
    margin: 0 auto;
    padding: 20px;
  }
  h1, h2, h3 { font-weight: 600; }
  h1 { font-size: 1.5rem; margin-bottom: 4px; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  p { margin: 6px 0; }
  ul { margin: 6px 0 6px 20px; }
  a { color: var(--accent); text-decoration: none; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-right { text-align: right; }
  .ticker-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    font-size: 1.1rem;
    margin-right: 8px;
  }

  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); }

  .charts { display: flex; gap: 16px; align-items: center; flex-wrap: wrap; margin: 12px 0; }
  .charts svg { max-width: 100%; height: auto; }

  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }

  @media print {
    body { max-width: 100%; padding: 10px; }
    table { page-break-inside: avoid; }
  }
</style>
</head>
<body>

<div class="header">
  <div>
    <h1><span class="ticker-badge">{{.Ticker}}</span> {{.Company}}</h1>
    <p class="muted">{{.Window}}</p>
  </div>
  <div class="header-right">
    <p class="muted">{{.GeneratedAt}}</p>
    <p class="muted">{{.Author}}</p>
  </div>
</div>

<div class="charts">
  <div>{{.Gauge}}</div>
  <div>{{.Chart}}</div>
</div>

{{.Body}}

<div class="footer">
  <p><strong>Disclaimer:</strong> This report is generated for educational and research purposes only.
  It is not investment advice.</p>
</div>

</body>
</html>`
