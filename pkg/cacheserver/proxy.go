package cacheserver

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// proxyHandler forwards browser requests to the GitHub API so the token
// never reaches the page. REST paths are mounted under /api/github/rest/
// and GraphQL under /api/github/graphql.
type proxyHandler struct {
	apiBase string
	token   string
	hc      *http.Client
	log     *slog.Logger
}

func newProxyHandler(apiBase, token string, hc *http.Client, log *slog.Logger) *proxyHandler {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &proxyHandler{
		apiBase: strings.TrimSuffix(apiBase, "/"),
		token:   token,
		hc:      hc,
		log:     log,
	}
}

func (h *proxyHandler) ServeRESTProxy(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/github/rest/")
	if path == "" {
		http.Error(w, "path required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete:
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target := h.apiBase + "/" + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	h.forward(w, r, r.Method, target)
}

func (h *proxyHandler) ServeGraphQLProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.forward(w, r, http.MethodPost, h.apiBase+"/graphql")
}

func (h *proxyHandler) forward(w http.ResponseWriter, r *http.Request, method, target string) {
	req, err := http.NewRequestWithContext(r.Context(), method, target, r.Body)
	if err != nil {
		http.Error(w, "bad upstream request", http.StatusBadRequest)
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.hc.Do(req)
	if err != nil {
		h.log.Error("upstream request failed", "target", target, "error", err)
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
