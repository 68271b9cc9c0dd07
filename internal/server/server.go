package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qsmath/internal/cache"
	"qsmath/internal/config"
	"qsmath/internal/metrics"
	"qsmath/internal/plugins"
	"qsmath/internal/render"
	"qsmath/pkg/plugin"
)

const versionHeader = "X-Qsmath-Version"

type Server struct {
	mu      sync.RWMutex
	config  *config.Config
	cache   *cache.Cache
	plugins *plugins.Manager
	router  chi.Router
	version string
}

// New loads the configured plugins into manager and builds the HTTP API
// around it.
func New(cfg *config.Config, manager *plugins.Manager, version string) (*Server, error) {
	s := &Server{
		config:  cfg,
		plugins: manager,
		version: version,
	}

	if cfg.Redis.Enabled() {
		resultCache, err := cache.New(cfg.Redis, cfg.CacheTTLDuration())
		if err != nil {
			return nil, fmt.Errorf("failed to create cache client: %w", err)
		}
		s.cache = resultCache
		manager.SetCache(resultCache)
	}

	if err := manager.LoadPlugins(cfg); err != nil {
		return nil, fmt.Errorf("failed to load plugins: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(s.versionMiddleware)

	r.Get("/search", s.handleSearch)
	r.Post("/execute", s.handleExecute)
	r.Get("/plugins", s.handlePlugins)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	return s, nil
}

// UpdateConfig applies a reloaded configuration. Plugins already loaded
// keep their identity; the cache is replaced only if Redis settings changed.
// On error the server keeps running with its previous configuration.
func (s *Server) UpdateConfig(cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cacheChanged := s.config.Redis != cfg.Redis || s.config.CacheTTL != cfg.CacheTTL

	var newCache *cache.Cache
	if cacheChanged && cfg.Redis.Enabled() {
		c, err := cache.New(cfg.Redis, cfg.CacheTTLDuration())
		if err != nil {
			return fmt.Errorf("failed to create new cache client: %w", err)
		}
		newCache = c
	}

	if err := s.plugins.LoadPlugins(cfg); err != nil {
		if newCache != nil {
			if closeErr := newCache.Close(); closeErr != nil {
				slog.Error("Failed to close unused cache client", "error", closeErr)
			}
		}
		return fmt.Errorf("failed to reload plugins: %w", err)
	}

	if cacheChanged {
		if newCache != nil {
			s.plugins.SetCache(newCache)
		} else {
			s.plugins.SetCache(nil)
		}
		if s.cache != nil {
			if err := s.cache.Close(); err != nil {
				slog.Error("Failed to close previous cache client", "error", err)
			}
		}
		s.cache = newCache
	}

	s.config = cfg
	return nil
}

// Close releases the cache connection.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.router.ServeHTTP(w, r)
}

func (s *Server) versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(versionHeader, s.version)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	groups := s.plugins.Search(r.Context(), r.URL.Query().Get("q"))

	w.Header().Set("Content-Type", format.ContentType())
	if err := render.Render(w, format, groups); err != nil {
		slog.Error("Failed to write search response", "error", err)
	}
}

type executeRequest struct {
	PluginID  string `json:"plugin_id"`
	Title     string `json:"title"`
	ExtraInfo string `json:"extra_info"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PluginID == "" {
		writeError(w, http.StatusBadRequest, "plugin_id is required")
		return
	}

	result := plugin.NewSearchResult(req.Title).WithExtraInfo(req.ExtraInfo)
	if err := s.plugins.Execute(plugin.NewPluginID(req.PluginID), result); err != nil {
		if errors.Is(err, plugins.ErrPluginNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

type pluginInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Source string `json:"source"`
	Color  string `json:"color,omitempty"`
}

func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	infos := []pluginInfo{}
	for _, lp := range s.plugins.Plugins() {
		info := pluginInfo{ID: lp.ID().String(), Name: lp.Name(), Source: lp.Source()}
		if chars := lp.ColoredName(); len(chars) > 0 {
			info.Color = render.ColorHex(chars[0].Color)
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, infos)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response body", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
