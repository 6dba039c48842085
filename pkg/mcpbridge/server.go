// Package mcpbridge exposes the knowledge base to MCP clients: coding agents
// and desktop assistants can list documents and ask streamed questions
// through the same API client the console uses.
package mcpbridge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/stream"
	"github.com/papercomputeco/kbconsole/pkg/utils"
)

// KB is the subset of *client.Client the bridge needs.
type KB interface {
	ListDocuments(ctx context.Context, opts client.ListOptions) ([]client.Document, error)
	QueryStream(ctx context.Context, q client.ChatQuery) (*stream.Reader, error)
	GetSystemPrompt(ctx context.Context) (*client.SystemPrompt, error)
}

type Config struct {
	// KB is the knowledge-base API client.
	KB KB

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
}

// NewServer creates an MCP server with the knowledge-base tools registered.
func NewServer(c Config) (*Server, error) {
	if c.KB == nil {
		return nil, errors.New("knowledge-base client is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "kbconsole",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	s := &Server{
		config:    c,
		mcpServer: mcpServer,
	}

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listDocumentsToolName,
		Description: listDocumentsDescription,
	}, s.handleListDocuments)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        askToolName,
		Description: askDescription,
	}, s.handleAsk)

	mcpServer.AddResource(&mcp.Resource{
		URI:         systemPromptURI,
		Name:        "system-prompt",
		Description: "The system prompt the knowledge base answers with",
		MIMEType:    "text/plain",
	}, s.handleSystemPrompt)

	return s, nil
}

// Run serves MCP over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns a stateless streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return s.mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)
}

// RunHTTP serves the streamable HTTP handler on addr until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	s.config.Logger.Info("serving MCP over HTTP", "addr", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
