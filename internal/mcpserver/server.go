// Package mcpserver exposes the news impact pipeline as Model Context
// Protocol tools.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"

	"github.com/seenimoa/newsimpact/internal/agent"
	"github.com/seenimoa/newsimpact/internal/report"
	"github.com/seenimoa/newsimpact/internal/storage"
	"github.com/seenimoa/newsimpact/pkg/models"
)

// Analyzer runs the pipeline for one request.
type Analyzer interface {
	Run(ctx context.Context, req models.Request) (*models.FinalReport, error)
}

// History is the optional run store.
type History interface {
	Save(report *models.FinalReport) error
	Get(id string) (*models.FinalReport, error)
	List(ticker string, limit int) ([]storage.RunRecord, error)
}

// Options configures the MCP server.
type Options struct {
	Analyzer Analyzer
	Store    History        // nil disables the history tools
	Defaults models.Request // numeric defaults for omitted arguments
	Version  string
}

// New builds an MCP server with the pipeline tools registered.
func New(opts Options) *server.MCPServer {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := server.NewMCPServer("newsimpact", opts.Version, server.WithToolCapabilities(true))
	registerTools(s, opts)
	return s
}

// ServeStdio serves the tools on stdin/stdout until the client disconnects.
func ServeStdio(opts Options) error {
	log.Info().Msg("mcp server on stdio")
	return server.ServeStdio(New(opts))
}

func registerTools(s *server.MCPServer, opts Options) {
	s.AddTool(createAnalyzeTool(), handleAnalyze(opts))
	s.AddTool(createGraphTool(), handleGraph())
	if opts.Store != nil {
		s.AddTool(createListRunsTool(), handleListRuns(opts.Store))
		s.AddTool(createGetRunTool(), handleGetRun(opts.Store))
	}
}

// --- Tool definitions ---

func createAnalyzeTool() mcp.Tool {
	return mcp.NewTool("analyze_news_impact",
		mcp.WithDescription("Search recent news about a company, classify each article's sentiment and expected price impact, measure the stock's return around each article date, and return a Markdown report. Educational use only, not investment advice."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stooq-style ticker, e.g. 'AMZN.US'")),
		mcp.WithString("company", mcp.Required(), mcp.Description("Company name used as the news query, e.g. 'Amazon'")),
		mcp.WithNumber("lookback_days", mcp.Description("Days of news to search (default from config)")),
		mcp.WithNumber("event_window_days", mcp.Description("Calendar days before and after each article (default from config)")),
		mcp.WithNumber("max_articles", mcp.Description("Maximum articles to fetch (default from config)")),
	)
}

func createGraphTool() mcp.Tool {
	return mcp.NewTool("pipeline_graph",
		mcp.WithDescription("Return the pipeline state machine as a mermaid flowchart."),
	)
}

func createListRunsTool() mcp.Tool {
	return mcp.NewTool("list_runs",
		mcp.WithDescription("List stored analysis runs, newest first."),
		mcp.WithString("ticker", mcp.Description("Only runs for this ticker")),
		mcp.WithNumber("limit", mcp.Description("Maximum runs to list (default: 20)")),
	)
}

func createGetRunTool() mcp.Tool {
	return mcp.NewTool("get_run",
		mcp.WithDescription("Return the Markdown report of a stored run."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run ID from list_runs")),
	)
}

// --- Handlers ---

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

func handleAnalyze(opts Options) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := request.RequireString("ticker")
		if err != nil || strings.TrimSpace(ticker) == "" {
			return errorResult("Error: ticker parameter is required"), nil
		}
		company, err := request.RequireString("company")
		if err != nil || strings.TrimSpace(company) == "" {
			return errorResult("Error: company parameter is required"), nil
		}

		req := models.Request{
			Ticker:          strings.TrimSpace(ticker),
			CompanyName:     strings.TrimSpace(company),
			LookbackDays:    request.GetInt("lookback_days", opts.Defaults.LookbackDays),
			EventWindowDays: request.GetInt("event_window_days", opts.Defaults.EventWindowDays),
			MaxArticles:     request.GetInt("max_articles", opts.Defaults.MaxArticles),
		}

		rep, err := opts.Analyzer.Run(ctx, req)
		if err != nil {
			return errorResult(fmt.Sprintf("Analysis failed: %v", err)), nil
		}
		if opts.Store != nil {
			if err := opts.Store.Save(rep); err != nil {
				log.Warn().Err(err).Str("run_id", rep.RunID).Msg("saving run")
			}
		}
		return markdownResult(rep)
	}
}

func handleGraph() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult("```mermaid\n" + agent.Mermaid() + "```\n"), nil
	}
}

func handleListRuns(store History) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		recs, err := store.List(request.GetString("ticker", ""), request.GetInt("limit", storage.DefaultListLimit))
		if err != nil {
			return errorResult(fmt.Sprintf("History error: %v", err)), nil
		}
		if len(recs) == 0 {
			return textResult("No stored runs."), nil
		}

		var sb strings.Builder
		sb.WriteString("| Run | Ticker | Company | Articles | Created |\n|---|---|---|---:|---|\n")
		for _, r := range recs {
			fmt.Fprintf(&sb, "| %s | %s | %s | %d | %s |\n",
				r.ID, r.Report.Ticker, r.Company, r.Report.ArticlesAnalyzed, r.CreatedAt.UTC().Format("2006-01-02 15:04"))
		}
		return textResult(sb.String()), nil
	}
}

func handleGetRun(store History) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("run_id")
		if err != nil || id == "" {
			return errorResult("Error: run_id parameter is required"), nil
		}
		rep, err := store.Get(id)
		if err != nil {
			return errorResult(fmt.Sprintf("Run error: %v", err)), nil
		}
		return markdownResult(rep)
	}
}

func markdownResult(rep *models.FinalReport) (*mcp.CallToolResult, error) {
	md, err := report.Markdown(rep, report.DefaultReportConfig())
	if err != nil {
		return errorResult(fmt.Sprintf("Rendering error: %v", err)), nil
	}
	return textResult(md), nil
}
