package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/qret/internal/metrics"
	"github.com/aretw0/qret/internal/validator"
	"github.com/aretw0/qret/pkg/domain"
	"github.com/aretw0/qret/pkg/ports"
	"github.com/aretw0/qret/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

// FastFillFunc returns the demo selection applied by POST /sessions/{id}/fast-fill.
type FastFillFunc func() ([]domain.Invoice, []domain.ReturnItem)

// Server serves return sessions over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	invoices ports.InvoiceSource
	metrics  *metrics.Collector
	fastFill FastFillFunc
	version  string
	api      string
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithInvoices enables invoice lookup by id and GET /invoices.
func WithInvoices(src ports.InvoiceSource) Option {
	return func(s *Server) {
		s.invoices = src
	}
}

// WithMetrics counts requests and serves GET /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// WithFastFill enables the demo fast-fill endpoint.
func WithFastFill(fn FastFillFunc) Option {
	return func(s *Server) {
		s.fastFill = fn
	}
}

// WithVersion sets the version reported by GET /info.
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

// NewHandler creates the HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) (http.Handler, error) {
	server := &Server{
		Sessions: sessions,
		version:  "dev",
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams = NewStreamManager(server.logger)

	doc, err := LoadSpec()
	if err != nil {
		return nil, err
	}
	server.api = doc.Info.Version
	validate, err := validateRequests(doc)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	if server.metrics != nil {
		r.Use(server.observe)
	}
	r.Use(validate)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(Spec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics.Handler())
	}

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/catalog", server.GetCatalog)
	r.Get("/invoices", server.SearchInvoices)
	r.Get("/events", server.SubscribeEvents)

	r.Get("/sessions", server.ListSessions)
	r.Post("/sessions", server.StartSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", server.GetSession)
		r.Delete("/", server.DeleteSession)
		r.Get("/visible", server.GetVisible)
		r.Post("/click", server.Click)
		r.Post("/phase", server.AdvancePhase)
		r.Post("/invoices", server.AddInvoice)
		r.Delete("/invoices/{invoiceId}", server.RemoveInvoice)
		r.Put("/items/{itemId}", server.SetQuantity)
		r.Delete("/items/{itemId}", server.RemoveItem)
		r.Post("/input", server.SetInput)
		r.Post("/fast-fill", server.FastFill)
		r.Get("/refund", server.GetRefund)
	})

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// observe counts every request by its route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveHTTP(r.Method, route, status)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>QRET API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// -- Request bodies --

type startRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
}

type nodeBody struct {
	ID      string         `json:"id" validate:"required"`
	Role    string         `json:"role" validate:"required"`
	Setting domain.Setting `json:"setting"`
}

type clickRequest struct {
	TargetID string     `json:"target_id" validate:"required"`
	Path     []nodeBody `json:"path" validate:"dive"`
}

// ClickResponse is the body returned by POST /sessions/{id}/click.
type ClickResponse struct {
	Snapshot *domain.Snapshot `json:"snapshot"`
	Effect   domain.Effect    `json:"effect"`
}

type phaseRequest struct {
	Phase string `json:"phase"`
}

type invoiceRequest struct {
	InvoiceID string          `json:"invoice_id" validate:"required_without=Invoice"`
	Invoice   *domain.Invoice `json:"invoice"`
}

type quantityRequest struct {
	Qty int `json:"qty" validate:"min=0"`
}

type inputRequest struct {
	Slot  string          `json:"slot" validate:"required"`
	Value json.RawMessage `json:"value" validate:"required"`
}

// CatalogResponse is the body returned by GET /catalog.
type CatalogResponse struct {
	Version string                `json:"version"`
	Entries []domain.CatalogEntry `json:"entries"`
}

// -- Handlers --

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":             "qret-http",
		"version":         s.version,
		"api_version":     s.api,
		"catalog_version": s.Sessions.Catalog().Version(),
	})
}

// GetCatalog handles the GET /catalog request.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := s.Sessions.Catalog()
	writeJSON(w, http.StatusOK, CatalogResponse{Version: catalog.Version(), Entries: catalog.List()})
}

// SearchInvoices handles the GET /invoices request.
func (s *Server) SearchInvoices(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &q); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if s.invoices == nil {
		writeJSON(w, http.StatusOK, []domain.Invoice{})
		return
	}
	found, err := s.invoices.Search(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if found == nil {
		found = []domain.Invoice{}
	}
	writeJSON(w, http.StatusOK, found)
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// StartSession handles the POST /sessions request. Without a session_id a
// random one is assigned.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if err := decode(r, &body, false); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}

	snap, err := s.Sessions.Start(r.Context(), body.SessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Streams.Publish(snap)
	writeJSON(w, http.StatusCreated, snap)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	snap, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.Streams.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

// GetVisible handles the GET /sessions/{id}/visible request.
func (s *Server) GetVisible(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	snap, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	visible := []string{}
	if tree := s.Sessions.Tree(); tree != nil {
		visible = append(visible, tree.VisibleIDs(snap.Transient)...)
	}
	writeJSON(w, http.StatusOK, visible)
}

// Click handles the POST /sessions/{id}/click request. A supplied path is
// used as is; otherwise the server tree resolves it.
func (s *Server) Click(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body clickRequest
	if err := decode(r, &body, true); err != nil {
		s.fail(w, r, err)
		return
	}

	var (
		snap *domain.Snapshot
		eff  domain.Effect
	)
	if len(body.Path) > 0 {
		path, perr := toNodes(body.Path)
		if perr != nil {
			s.fail(w, r, perr)
			return
		}
		snap, eff, err = s.Sessions.ClickPath(r.Context(), id, domain.Click{TargetID: body.TargetID}, path...)
	} else {
		snap, eff, err = s.Sessions.Click(r.Context(), id, body.TargetID)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Streams.Publish(snap)
	writeJSON(w, http.StatusOK, ClickResponse{Snapshot: snap, Effect: eff})
}

// AdvancePhase handles the POST /sessions/{id}/phase request. Without a
// phase the session moves to the next one.
func (s *Server) AdvancePhase(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body phaseRequest
	if err := decode(r, &body, false); err != nil {
		s.fail(w, r, err)
		return
	}

	var snap *domain.Snapshot
	if body.Phase == "" {
		snap, err = s.Sessions.NextPhase(r.Context(), id)
	} else {
		snap, err = s.Sessions.AdvancePhase(r.Context(), id, domain.Phase(body.Phase))
	}
	s.respond(w, r, snap, err)
}

// AddInvoice handles the POST /sessions/{id}/invoices request. The invoice
// is either looked up by invoice_id or supplied inline.
func (s *Server) AddInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body invoiceRequest
	if err := decode(r, &body, true); err != nil {
		s.fail(w, r, err)
		return
	}

	var inv domain.Invoice
	switch {
	case body.InvoiceID != "":
		if s.invoices == nil {
			s.fail(w, r, fmt.Errorf("%w: %q", domain.ErrInvoiceNotFound, body.InvoiceID))
			return
		}
		inv, err = s.invoices.Find(r.Context(), body.InvoiceID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	default:
		inv = *body.Invoice
	}

	snap, err := s.Sessions.AddInvoice(r.Context(), id, inv)
	s.respond(w, r, snap, err)
}

// RemoveInvoice handles the DELETE /sessions/{id}/invoices/{invoiceId} request.
func (s *Server) RemoveInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	invoiceID, err := pathParam(r, "invoiceId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	snap, err := s.Sessions.RemoveInvoice(r.Context(), id, invoiceID)
	s.respond(w, r, snap, err)
}

// SetQuantity handles the PUT /sessions/{id}/items/{itemId} request.
func (s *Server) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathParam(r, "itemId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body quantityRequest
	if err := decode(r, &body, true); err != nil {
		s.fail(w, r, err)
		return
	}
	var snap *domain.Snapshot
	if body.Qty == 0 {
		snap, err = s.Sessions.RemoveItem(r.Context(), id, itemID)
	} else {
		snap, err = s.Sessions.SetQuantity(r.Context(), id, itemID, body.Qty)
	}
	s.respond(w, r, snap, err)
}

// RemoveItem handles the DELETE /sessions/{id}/items/{itemId} request.
func (s *Server) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathParam(r, "itemId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	snap, err := s.Sessions.RemoveItem(r.Context(), id, itemID)
	s.respond(w, r, snap, err)
}

// SetInput handles the POST /sessions/{id}/input request.
func (s *Server) SetInput(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body inputRequest
	if err := decode(r, &body, true); err != nil {
		s.fail(w, r, err)
		return
	}
	snap, err := s.Sessions.SetInput(r.Context(), id, body.Slot, body.Value)
	s.respond(w, r, snap, err)
}

// FastFill handles the POST /sessions/{id}/fast-fill request.
func (s *Server) FastFill(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if s.fastFill == nil {
		s.fail(w, r, errFastFillDisabled)
		return
	}
	invoices, items := s.fastFill()
	snap, err := s.Sessions.FastFill(r.Context(), id, invoices, items)
	s.respond(w, r, snap, err)
}

// GetRefund handles the GET /sessions/{id}/refund request.
func (s *Server) GetRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sum, err := s.Sessions.Refund(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// SubscribeEvents handles the GET /events request (SSE). Each message is a
// JSON snapshot diff of the session.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var sessionID, watch string
	if err := runtime.BindQueryParameter("form", true, true, "session_id", r.URL.Query(), &sessionID); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "watch", r.URL.Query(), &watch); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	watchList := parseWatch(watch)
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !wants(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

var (
	errBadRequest       = errors.New("bad request")
	errFastFillDisabled = errors.New("fast-fill is not configured")
)

type errorBody struct {
	Error string `json:"error"`
}

// respond publishes and writes a mutated snapshot, or the error.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, snap *domain.Snapshot, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Streams.Publish(snap)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrInvoiceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPhaseRejected):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrUnknownSlot),
		errors.Is(err, domain.ErrUnknownPhase),
		errors.Is(err, domain.ErrUnknownNode),
		errors.Is(err, domain.ErrInvalidNode),
		errors.Is(err, domain.ErrInvalidSetting),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr):
		return http.StatusBadRequest
	case errors.Is(err, errFastFillDisabled):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// decode reads a JSON body into v and validates it. An empty body is
// accepted when required is false.
func decode(r *http.Request, v any, required bool) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) && !required {
			return nil
		}
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	if err := validator.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return v, nil
}

func toNodes(bodies []nodeBody) ([]domain.Node, error) {
	nodes := make([]domain.Node, 0, len(bodies))
	for _, b := range bodies {
		role, err := domain.ParseRole(b.Role)
		if err != nil {
			return nil, err
		}
		setting := b.Setting
		if setting == nil {
			setting = domain.NewSetting()
		}
		if role == domain.RoleActor {
			nodes = append(nodes, domain.NewActor(b.ID, setting.Keys()...))
			continue
		}
		nodes = append(nodes, domain.Node{ID: b.ID, Role: role, Setting: setting})
	}
	return nodes, nil
}
