package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/qret/internal/presentation/graph"
	"github.com/aretw0/qret/pkg/domain"
	"github.com/aretw0/qret/pkg/ports"
	"github.com/aretw0/qret/pkg/session"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionResult is the structured result of tools that change a session.
type SessionResult struct {
	Snapshot *domain.Snapshot `json:"snapshot" jsonschema_description:"The session after the change"`
	Visible  []string         `json:"visible" jsonschema_description:"Ids of the screen nodes currently shown"`
	Effect   *domain.Effect   `json:"effect,omitempty" jsonschema_description:"How a click was handled"`
}

// InvoiceList is the structured result of search_invoices.
type InvoiceList struct {
	Invoices []domain.Invoice `json:"invoices" jsonschema_description:"Matching invoices"`
}

type startArgs struct {
	SessionID string `json:"session_id"`
}

type clickArgs struct {
	SessionID string `json:"session_id"`
	TargetID  string `json:"target_id"`
}

type phaseArgs struct {
	SessionID string `json:"session_id"`
	Phase     string `json:"phase"`
}

type invoiceArgs struct {
	SessionID string `json:"session_id"`
	InvoiceID string `json:"invoice_id"`
}

type quantityArgs struct {
	SessionID string `json:"session_id"`
	ItemID    string `json:"item_id"`
	Qty       int    `json:"qty"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type searchArgs struct {
	Query string `json:"query"`
}

// Server exposes return sessions as MCP tools.
type Server struct {
	sessions  *session.Manager
	invoices  ports.InvoiceSource
	fastFill  func() ([]domain.Invoice, []domain.ReturnItem)
	version   string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithInvoices enables add_invoice and search_invoices.
func WithInvoices(src ports.InvoiceSource) Option {
	return func(s *Server) {
		s.invoices = src
	}
}

// WithFastFill registers the fast_fill tool.
func WithFastFill(fn func() ([]domain.Invoice, []domain.ReturnItem)) Option {
	return func(s *Server) {
		s.fastFill = fn
	}
}

// WithVersion sets the version announced to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		version:  "dev",
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("qret-mcp", s.version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. to dispatch raw messages.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: start_session
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Open a return session, creating it when it does not exist. Without session_id a new one is assigned."),
		mcp.WithString("session_id", mcp.Description("Session to open (optional)")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	// TOOL: click
	s.mcpServer.AddTool(mcp.NewTool("click",
		mcp.WithDescription("Click a node of the return screen. Actors reveal their details, stages reset the screen."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("target_id", mcp.Required(), mcp.Description("Id of the clicked node")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleClick))

	// TOOL: advance_phase
	s.mcpServer.AddTool(mcp.NewTool("advance_phase",
		mcp.WithDescription("Move the return to another phase. Clears the screen state. Without phase, moves to the next one."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("phase", mcp.Description("Target phase"),
			mcp.Enum(phaseNames()...)),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handlePhase))

	// TOOL: add_invoice
	s.mcpServer.AddTool(mcp.NewTool("add_invoice",
		mcp.WithDescription("Attach a sold invoice to the return as proof of purchase."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("invoice_id", mcp.Required(), mcp.Description("Invoice id, see search_invoices")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleAddInvoice))

	// TOOL: set_quantity
	s.mcpServer.AddTool(mcp.NewTool("set_quantity",
		mcp.WithDescription("Set how many units of an item are returned. A quantity of 0 removes the item."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Catalog item id")),
		mcp.WithNumber("qty", mcp.Required(), mcp.Min(0), mcp.Description("Units returned")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleSetQuantity))

	// TOOL: derive_refund
	s.mcpServer.AddTool(mcp.NewTool("derive_refund",
		mcp.WithDescription("Derive the refund of a session: per-unit atoms matched to invoices, totals per item and per invoice."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[domain.Summary](),
	), mcp.NewStructuredToolHandler(s.handleRefund))

	// TOOL: search_invoices
	s.mcpServer.AddTool(mcp.NewTool("search_invoices",
		mcp.WithDescription("Search sold invoices by id or customer."),
		mcp.WithString("query", mcp.Description("Case-insensitive text; empty lists everything")),
		mcp.WithOutputSchema[InvoiceList](),
	), mcp.NewStructuredToolHandler(s.handleSearch))

	if s.fastFill != nil {
		// TOOL: fast_fill
		s.mcpServer.AddTool(mcp.NewTool("fast_fill",
			mcp.WithDescription("Replace the receipts and return items of a session with demo data."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
			mcp.WithOutputSchema[SessionResult](),
		), mcp.NewStructuredToolHandler(s.handleFastFill))
	}
}

func phaseNames() []string {
	phases := domain.Phases()
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = string(p)
	}
	return names
}

// Handler methods for structured tools

func (s *Server) result(snap *domain.Snapshot, eff *domain.Effect) SessionResult {
	visible := []string{}
	if tree := s.sessions.Tree(); tree != nil {
		visible = append(visible, tree.VisibleIDs(snap.Transient)...)
	}
	return SessionResult{Snapshot: snap, Visible: visible, Effect: eff}
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args startArgs) (SessionResult, error) {
	id := args.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	snap, err := s.sessions.Start(ctx, id)
	if err != nil {
		return SessionResult{}, fmt.Errorf("start failed: %w", err)
	}
	return s.result(snap, nil), nil
}

func (s *Server) handleClick(ctx context.Context, _ mcp.CallToolRequest, args clickArgs) (SessionResult, error) {
	snap, eff, err := s.sessions.Click(ctx, args.SessionID, args.TargetID)
	if err != nil {
		return SessionResult{}, fmt.Errorf("click failed: %w", err)
	}
	return s.result(snap, &eff), nil
}

func (s *Server) handlePhase(ctx context.Context, _ mcp.CallToolRequest, args phaseArgs) (SessionResult, error) {
	var (
		snap *domain.Snapshot
		err  error
	)
	if args.Phase == "" {
		snap, err = s.sessions.NextPhase(ctx, args.SessionID)
	} else {
		snap, err = s.sessions.AdvancePhase(ctx, args.SessionID, domain.Phase(args.Phase))
	}
	if err != nil {
		return SessionResult{}, fmt.Errorf("advance failed: %w", err)
	}
	return s.result(snap, nil), nil
}

func (s *Server) handleAddInvoice(ctx context.Context, _ mcp.CallToolRequest, args invoiceArgs) (SessionResult, error) {
	if s.invoices == nil {
		return SessionResult{}, fmt.Errorf("%w: %q", domain.ErrInvoiceNotFound, args.InvoiceID)
	}
	inv, err := s.invoices.Find(ctx, args.InvoiceID)
	if err != nil {
		return SessionResult{}, err
	}
	snap, err := s.sessions.AddInvoice(ctx, args.SessionID, inv)
	if err != nil {
		return SessionResult{}, fmt.Errorf("add invoice failed: %w", err)
	}
	return s.result(snap, nil), nil
}

func (s *Server) handleSetQuantity(ctx context.Context, _ mcp.CallToolRequest, args quantityArgs) (SessionResult, error) {
	var (
		snap *domain.Snapshot
		err  error
	)
	switch {
	case args.Qty < 0:
		return SessionResult{}, fmt.Errorf("qty must not be negative, got %d", args.Qty)
	case args.Qty == 0:
		snap, err = s.sessions.RemoveItem(ctx, args.SessionID, args.ItemID)
	default:
		snap, err = s.sessions.SetQuantity(ctx, args.SessionID, args.ItemID, args.Qty)
	}
	if err != nil {
		return SessionResult{}, fmt.Errorf("set quantity failed: %w", err)
	}
	return s.result(snap, nil), nil
}

func (s *Server) handleRefund(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (domain.Summary, error) {
	sum, err := s.sessions.Refund(ctx, args.SessionID)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("derive failed: %w", err)
	}
	return sum, nil
}

func (s *Server) handleSearch(ctx context.Context, _ mcp.CallToolRequest, args searchArgs) (InvoiceList, error) {
	if s.invoices == nil {
		return InvoiceList{Invoices: []domain.Invoice{}}, nil
	}
	found, err := s.invoices.Search(ctx, args.Query)
	if err != nil {
		return InvoiceList{}, fmt.Errorf("search failed: %w", err)
	}
	return InvoiceList{Invoices: found}, nil
}

func (s *Server) handleFastFill(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (SessionResult, error) {
	invoices, items := s.fastFill()
	snap, err := s.sessions.FastFill(ctx, args.SessionID, invoices, items)
	if err != nil {
		return SessionResult{}, fmt.Errorf("fast fill failed: %w", err)
	}
	return s.result(snap, nil), nil
}

func (s *Server) registerResources() {
	// EXPOSE: qret://catalog
	s.mcpServer.AddResource(mcp.NewResource("qret://catalog", "Price Catalog",
		mcp.WithResourceDescription("Catalog entries used to price refunds, with the catalog version"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		catalog := s.sessions.Catalog()
		jsonBytes, err := json.Marshal(map[string]any{
			"version": catalog.Version(),
			"entries": catalog.List(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "qret://catalog",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	if s.sessions.Tree() == nil {
		return
	}
	// EXPOSE: qret://screen
	s.mcpServer.AddResource(mcp.NewResource("qret://screen", "Screen Tree",
		mcp.WithResourceDescription("Mermaid diagram of the return screen's interaction tree"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "qret://screen",
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.sessions.Tree(), nil),
			},
		}, nil
	})
}
