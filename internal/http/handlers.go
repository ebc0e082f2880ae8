package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/storage"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.health == nil {
		checks["database"] = "not_configured"
	} else if err := s.health.Ping(ctx); err != nil {
		checks["database"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	NewHTMXResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()

	w.WriteHeader(http.StatusOK)

	if s.views != nil {
		st := s.views.Stats()
		fmt.Fprintf(w, "# HELP cache_hits_total Year view cache hits\n")
		fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
		fmt.Fprintf(w, "cache_hits_total %d\n\n", st.Hits)

		fmt.Fprintf(w, "# HELP cache_misses_total Year view cache misses\n")
		fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
		fmt.Fprintf(w, "cache_misses_total %d\n\n", st.Misses)

		fmt.Fprintf(w, "# HELP cache_entries Cached year views\n")
		fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
		fmt.Fprintf(w, "cache_entries %d\n\n", st.Size)
	}

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}

// handleIndex lists the visible tools.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Not found").Write(w)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	tools, err := s.tools.ListTools(r.Context())
	if err != nil {
		writeServiceError(w, r, err, log.OpList)
		return
	}
	s.render(w, r, "index.html", struct{ Tools []core.Tool }{Tools: tools})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	tools, err := s.tools.ListTools(r.Context())
	if err != nil {
		writeServiceError(w, r, err, log.OpList)
		return
	}
	NewHTMXResponse().JSON(tools).Write(w)
}

// handleTool dispatches on the tool's kernel. Only the subscription kernel is served.
func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	slug := r.PathValue("slug")
	tool, err := s.tools.GetTool(r.Context(), slug)
	if errors.Is(err, storage.ErrNotFound) {
		NotFoundError("Unknown tool").Write(w)
		return
	}
	if err != nil {
		writeServiceError(w, r, err, log.OpRead)
		return
	}

	if tool.KernelCode != core.KernelSubscription {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Tool kernel not served",
			log.FieldToolSlug, slug,
			"kernel", tool.KernelCode)
		NotImplementedError("This tool is not available yet").Write(w)
		return
	}

	year, err := ParseYearParam(r.URL.Query(), s.currentYear())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tab := tool.DefaultTab
	if q := r.URL.Query().Get("tab"); q != "" {
		if tab, err = core.ParseTab(q); err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
	}
	if tab == "" {
		tab = core.TabOverview
	}

	view, err := s.ledger.LoadYear(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, err, log.OpRead)
		return
	}
	data := toolPage{Tool: tool, Tab: tab, Grid: s.gridPage(view, tab)}
	s.render(w, r, "tool.html", data)
}

type toolPage struct {
	Tool core.Tool
	Tab  core.Tab
	Grid gridPage
}
