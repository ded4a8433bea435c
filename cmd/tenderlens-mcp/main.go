// Command tenderlens-mcp exposes tender barrier analysis as an MCP tool
// over stdio, so agent frontends can score documents without the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tenderlens/tenderlens/internal/analyzer"
	"github.com/tenderlens/tenderlens/internal/barrier"
)

func main() {
	engine := analyzer.NewRules()

	s := server.NewMCPServer("tenderlens", "1.0.0")

	tool := mcp.NewTool("analyze_tender",
		mcp.WithDescription("Analyze a procurement tender document for SME barriers. Returns a 0-100 barrier score, the flagged phrases with categories, and a recommendation."),
		mcp.WithString("tender_text",
			mcp.Required(),
			mcp.Description("The tender document text to analyze"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, _ := req.Params.Arguments["tender_text"].(string)
		if strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("tender_text cannot be empty"), nil
		}

		res, err := engine.Analyze(ctx, text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error analyzing tender: %v", err)), nil
		}

		return mcp.NewToolResultText(formatResult(res)), nil
	})

	log.SetPrefix("tenderlens-mcp: ")
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

type toolResponse struct {
	BarrierScore   int                     `json:"barrier_score"`
	FlaggedPhrases []barrier.FlaggedPhrase `json:"flagged_phrases"`
	Recommendation string                  `json:"recommendation"`
}

func formatResult(res *analyzer.Result) string {
	out := toolResponse{
		BarrierScore:   res.Score,
		FlaggedPhrases: res.Phrases,
		Recommendation: res.Recommendation,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Sprintf("barrier_score: %d\nrecommendation: %s", res.Score, res.Recommendation)
	}
	return string(data)
}
