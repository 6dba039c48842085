package mcpbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/kbconsole/pkg/chat"
	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/stream"
)

var (
	listDocumentsToolName    = "list_documents"
	listDocumentsDescription = "List documents and videos ingested into the knowledge base. Optionally filter by a search string, content type (document or video) or tag."

	askToolName    = "ask"
	askDescription = "Ask the knowledge base a question. Returns the generated answer together with the source documents it cites, most relevant first."

	systemPromptURI = "kb://system-prompt"
)

// ListDocumentsInput represents the input arguments for the list_documents tool.
type ListDocumentsInput struct {
	Search string `json:"search,omitempty" jsonschema:"case-insensitive text matched against filename, title, description and tags"`
	Type   string `json:"type,omitempty" jsonschema:"content type filter: document or video"`
	Tag    string `json:"tag,omitempty" jsonschema:"only documents carrying this tag"`
}

// DocumentSummary is a single listed document.
type DocumentSummary struct {
	Filename string   `json:"filename"`
	Title    string   `json:"title"`
	Type     string   `json:"type,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Summary  string   `json:"summary,omitempty"`
}

// ListDocumentsOutput represents the output of the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentSummary `json:"documents"`
	Count     int               `json:"count"`
}

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the knowledge base"`
}

// Citation is a source cited by an answer.
type Citation struct {
	Title    string   `json:"title"`
	Filename string   `json:"filename"`
	Score    float64  `json:"score"`
	Segments []string `json:"segments,omitempty"`
}

// AskOutput represents the output of the ask tool.
type AskOutput struct {
	Query   string     `json:"query"`
	Answer  string     `json:"answer"`
	Sources []Citation `json:"sources"`
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// jsonResult serializes structured output into a TextContent block as well,
// for clients that only read text content.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}

// handleListDocuments processes a list_documents request.
func (s *Server) handleListDocuments(ctx context.Context, _ *mcp.CallToolRequest, input ListDocumentsInput) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP list_documents request", "search", input.Search, "type", input.Type, "tag", input.Tag)

	docs, err := s.config.KB.ListDocuments(ctx, client.ListOptions{
		Search: input.Search,
		Type:   input.Type,
		Tag:    input.Tag,
	})
	if err != nil {
		logger.Error("failed to list documents", "error", err)
		return errorResult("Failed to list documents: %v", err), ListDocumentsOutput{}, nil
	}

	output := ListDocumentsOutput{Documents: make([]DocumentSummary, 0, len(docs))}
	for _, d := range docs {
		output.Documents = append(output.Documents, DocumentSummary{
			Filename: d.Filename,
			Title:    d.Name(),
			Type:     d.Type,
			Tags:     d.Tags,
			Summary:  d.Summary,
		})
	}
	output.Count = len(output.Documents)

	result, err := jsonResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), ListDocumentsOutput{}, nil
	}
	return result, output, nil
}

// handleAsk drains one streamed answer into a single tool result.
func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP ask request", "query", input.Query)

	r, err := s.config.KB.QueryStream(ctx, client.ChatQuery{Query: input.Query})
	if err != nil {
		logger.Error("failed to open chat stream", "error", err)
		return errorResult("Failed to query knowledge base: %v", err), AskOutput{}, nil
	}
	defer r.Close()

	session := chat.NewSession()
	reply := session.Begin(input.Query)
	if err := session.Consume(ctx, r, nil); err != nil {
		logger.Warn("chat stream ended early", "error", err)
	}
	if reply.Failed() {
		return errorResult("Knowledge base returned an error: %s", reply.Error), AskOutput{}, nil
	}

	output := AskOutput{
		Query:   input.Query,
		Answer:  reply.Content,
		Sources: citations(reply.Sources),
	}

	result, err := jsonResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), AskOutput{}, nil
	}
	return result, output, nil
}

func citations(sources []stream.Source) []Citation {
	out := make([]Citation, 0, len(sources))
	for _, src := range sources {
		c := Citation{
			Title:    src.Name(),
			Filename: src.Filename,
			Score:    src.RelevanceScore,
		}
		for _, ts := range src.Timestamps {
			c.Segments = append(c.Segments, ts.String())
		}
		out = append(out, c)
	}
	return out
}

// handleSystemPrompt serves the current system prompt as a resource.
func (s *Server) handleSystemPrompt(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	p, err := s.config.KB.GetSystemPrompt(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading system prompt: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     p.Prompt,
		}},
	}, nil
}
