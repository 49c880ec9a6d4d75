// Package monitor serves the recorder's live status, recent rounds and metrics
// over HTTP, and mirrors the status into a file for tools that tail it.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cwstats/recorder/internal/round"
	"github.com/cwstats/recorder/pkg/core"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultCacheTTL is how long finished rounds stay listed under /rounds.
const DefaultCacheTTL = 24 * time.Hour

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Address   string
	CacheTTL  time.Duration
	Status    *round.Context
	Logger    *slog.Logger
	Websocket http.Handler // mounted at /ws when set

	// StatusFile, when set, is rewritten with the JSON status every StatusInterval.
	StatusFile     string
	StatusInterval time.Duration
}

// RoundEntry is a finished round as listed by /rounds.
type RoundEntry struct {
	Key     string           `json:"key"`
	EndedAt time.Time        `json:"endedAt"`
	Outcome core.Outcome     `json:"outcome"`
	Record  *core.GameRecord `json:"record"`
	Lines   []string         `json:"lines"`
}

type metrics struct {
	rounds   *prometheus.CounterVec
	inRound  prometheus.Gauge
	commands *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		rounds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cwstats",
			Subsystem: "session",
			Name:      "rounds",
			Help:      "Counts finished rounds per outcome",
		}, []string{"outcome"}),
		inRound: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cwstats",
			Subsystem: "session",
			Name:      "in_round",
			Help:      "1 while a round is being recorded",
		}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cwstats",
			Subsystem: "ingest",
			Name:      "commands",
			Help:      "Counts handled host commands per command and status",
		}, []string{"command", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cwstats",
			Subsystem: "ingest",
			Name:      "command_duration_seconds",
			Help:      "Time spent handling host commands",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"command"}),
	}
}

// Service manages status monitoring
type Service struct {
	deps     Dependencies
	registry *prometheus.Registry
	metrics  *metrics
	rounds   *cache.Cache
	router   *mux.Router

	isRunning  bool
	mu         sync.RWMutex
	stopChan   chan struct{}
	httpServer *http.Server
	wg         sync.WaitGroup
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Status == nil {
		deps.Status = round.NewContext()
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = DefaultCacheTTL
	}
	if deps.StatusInterval <= 0 {
		deps.StatusInterval = time.Second
	}

	registry := prometheus.NewRegistry()
	s := &Service{
		deps:     deps,
		registry: registry,
		metrics:  newMetrics(registry),
		rounds:   cache.New(deps.CacheTTL, deps.CacheTTL*2),
	}
	s.router = s.newRouter()
	return s
}

func (s *Service) newRouter() *mux.Router {
	router := mux.NewRouter()
	router.Path("/healthcheck").Methods("GET").HandlerFunc(s.handleHealthcheck)
	router.Path("/status").Methods("GET").HandlerFunc(s.handleStatus)
	router.Path("/rounds").Methods("GET").HandlerFunc(s.handleRounds)
	router.Path("/rounds/{key}").Methods("GET").HandlerFunc(s.handleRound)
	router.Path("/metrics").Methods("GET").Handler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	if s.deps.Websocket != nil {
		router.Path("/ws").Methods("GET").Handler(s.deps.Websocket)
	}
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.deps.Logger.Debug("Unmatched request", "method", r.Method, "url", r.URL.String())
		w.WriteHeader(http.StatusNotFound)
	})
	return router
}

// Handler exposes the router, mostly for tests.
func (s *Service) Handler() http.Handler {
	return s.router
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// ObserveCommand records a handled host command. It matches dispatcher.Observer.
func (s *Service) ObserveCommand(command string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.commands.WithLabelValues(command, status).Inc()
	s.metrics.duration.WithLabelValues(command).Observe(duration.Seconds())
}

// StartRound marks a round as live.
func (s *Service) StartRound(r *core.GameRecord) error {
	s.metrics.inRound.Set(1)
	return nil
}

// EndRound counts the round and lists it under /rounds.
func (s *Service) EndRound(r *core.GameRecord, lines []string) error {
	s.metrics.inRound.Set(0)
	s.metrics.rounds.WithLabelValues(string(r.Outcome())).Inc()

	rec := *r
	entry := RoundEntry{
		Key:     roundKey(&rec),
		EndedAt: time.Now(),
		Outcome: rec.Outcome(),
		Record:  &rec,
		Lines:   append([]string(nil), lines...),
	}
	s.rounds.Set(entry.Key, entry, cache.DefaultExpiration)
	return nil
}

// Rounds lists cached rounds, most recent first.
func (s *Service) Rounds() []RoundEntry {
	items := s.rounds.Items()
	out := make([]RoundEntry, 0, len(items))
	for _, item := range items {
		if entry, ok := item.Object.(RoundEntry); ok {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EndedAt.After(out[j].EndedAt)
	})
	return out
}

// roundKey prefers the storage ID and falls back to the start time.
func roundKey(r *core.GameRecord) string {
	if r.ID != 0 {
		return strconv.FormatUint(uint64(r.ID), 10)
	}
	return r.CreatedAt.UTC().Format("20060102T150405.000")
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Service) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.deps.Status.Get())
}

func (s *Service) handleRounds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Rounds())
}

func (s *Service) handleRound(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	item, ok := s.rounds.Get(key)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, item)
}

// Start begins serving on the configured address and starts the status file writer.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.httpServer = &http.Server{
		Addr:         s.deps.Address,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.deps.Logger.Info("Starting status server", "address", s.deps.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.deps.Logger.Error("Status server stopped", "error", err)
		}
	}()

	if s.deps.StatusFile != "" {
		s.wg.Add(1)
		go s.statusFileLoop()
	}
	return nil
}

func (s *Service) statusFileLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.deps.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if err := s.WriteStatusFile(); err != nil {
				s.deps.Logger.Error("Error writing status file", "error", err)
			}
		}
	}
}

// WriteStatusFile replaces the status file with the current status.
func (s *Service) WriteStatusFile() error {
	data, err := json.MarshalIndent(s.deps.Status.Get(), "", "  ")
	if err != nil {
		return err
	}
	tmp := s.deps.StatusFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing status file: %w", err)
	}
	return os.Rename(tmp, s.deps.StatusFile)
}

// Stop shuts the server down and waits for background goroutines.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	close(s.stopChan)
	srv := s.httpServer
	s.mu.Unlock()

	err := srv.Shutdown(ctx)
	s.wg.Wait()
	return err
}
