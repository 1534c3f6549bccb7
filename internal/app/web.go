// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mehak2807/urban-pulse-energy/internal/config"
	"github.com/mehak2807/urban-pulse-energy/internal/hotspot"
	"github.com/mehak2807/urban-pulse-energy/internal/mqttbus"
	"github.com/mehak2807/urban-pulse-energy/internal/scan"
	"github.com/mehak2807/urban-pulse-energy/internal/store"
	"github.com/mehak2807/urban-pulse-energy/internal/verify"
)

// readingStore is what the HTTP API reads from.
type readingStore interface {
	Reading(ctx context.Context, id string) (scan.Reading, error)
	Latest(ctx context.Context) (scan.Reading, error)
	ListReadings(ctx context.Context, cellID string, limit int) ([]scan.Reading, error)
	GridContext(ctx context.Context, cellID string) (verify.GridContext, error)
	Hotspots(ctx context.Context) ([]hotspot.Hotspot, error)
	UserProfile(ctx context.Context, userID string) (store.UserProfile, error)
}

type api struct {
	db  readingStore
	hub *hub
	log *zap.SugaredLogger
}

func newRouter(db readingStore, h *hub, staticDir string, log *zap.SugaredLogger) *mux.Router {
	a := &api{db: db, hub: h, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/api/readings/latest", a.latestReading).Methods("GET")
	r.HandleFunc("/api/readings/{id}", a.reading).Methods("GET")
	r.HandleFunc("/api/cells/{cell}/readings", a.cellReadings).Methods("GET")
	r.HandleFunc("/api/cells/{cell}/grid", a.cellGrid).Methods("GET")
	r.HandleFunc("/api/hotspots", a.hotspots).Methods("GET")
	r.HandleFunc("/api/stats", a.stats).Methods("GET")
	r.HandleFunc("/api/users/{id}", a.user).Methods("GET")
	r.HandleFunc("/scans/{id}/spectrum", a.spectrum).Methods("GET")
	r.HandleFunc("/ws/live", h.serveWS)
	if staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	}
	return r
}

// RunWeb serves the JSON API, the spectrum charts and the live websocket
// feed. Readings and live samples from MQTT are pushed to websocket clients.
func RunWeb(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	h := newHub(log)
	defer h.close()

	bus, err := mqttbus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDWeb, log)
	if err != nil {
		return err
	}
	defer bus.Close()

	if err := mqttbus.SubscribeJSON(bus, cfg.TopicLive, func(s liveSample) {
		h.broadcast("live", s)
	}); err != nil {
		return err
	}
	if err := mqttbus.SubscribeJSON(bus, cfg.TopicReadings, func(r scan.Reading) {
		h.broadcast("reading", r)
	}); err != nil {
		return err
	}

	router := newRouter(db, h, cfg.WebStaticDir, log)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           handlers.LoggingHandler(os.Stdout, handlers.RecoveryHandler()(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("web: listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web: %w", err)
	case <-ctx.Done():
	}

	log.Info("web: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *api) latestReading(w http.ResponseWriter, r *http.Request) {
	reading, err := a.db.Latest(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, reading)
}

func (a *api) reading(w http.ResponseWriter, r *http.Request) {
	reading, err := a.db.Reading(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, reading)
}

func (a *api) cellReadings(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	readings, err := a.db.ListReadings(r.Context(), mux.Vars(r)["cell"], limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if readings == nil {
		readings = []scan.Reading{}
	}
	a.writeJSON(w, http.StatusOK, readings)
}

func (a *api) cellGrid(w http.ResponseWriter, r *http.Request) {
	g, err := a.db.GridContext(r.Context(), mux.Vars(r)["cell"])
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, g)
}

func (a *api) hotspots(w http.ResponseWriter, r *http.Request) {
	hs, err := a.db.Hotspots(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, hotspot.Rank(hs))
}

func (a *api) stats(w http.ResponseWriter, r *http.Request) {
	hs, err := a.db.Hotspots(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, struct {
		hotspot.Stats
		LiveClients int `json:"liveClients"`
	}{hotspot.NetworkStats(hs), a.hub.count()})
}

func (a *api) user(w http.ResponseWriter, r *http.Request) {
	p, err := a.db.UserProfile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, p)
}

func (a *api) spectrum(w http.ResponseWriter, r *http.Request) {
	reading, err := a.db.Reading(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := renderSpectrum(&buf, reading); err != nil {
		a.writeError(w, fmt.Errorf("render spectrum: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (a *api) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Warnf("web: json encode error: %v", err)
	}
}

func (a *api) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	} else {
		a.log.Errorf("web: %v", err)
	}
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}
