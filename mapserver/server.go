// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

// Package mapserver exposes the event directory and the route pipeline
// over HTTP for a browser map page.
package mapserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ezpark/ezpark/eventdb"
	"github.com/ezpark/ezpark/events"
	"github.com/ezpark/ezpark/geocode"
	"github.com/ezpark/ezpark/pipeline"
	"github.com/gin-gonic/gin"
)

// Server serves one user session: one saved list and one map view.
type Server struct {
	pipeline  *pipeline.Pipeline
	directory *events.Directory
	saved     *events.SavedEvents
	geocoder  geocode.Resolver
	repo      eventdb.EventRepository // nil when no database is configured
	view      *viewSurface
}

// NewServer creates a server. repo may be nil, the database endpoints then
// answer 503.
func NewServer(
	p *pipeline.Pipeline,
	directory *events.Directory,
	saved *events.SavedEvents,
	geocoder geocode.Resolver,
	repo eventdb.EventRepository,
) *Server {
	return &Server{
		pipeline:  p,
		directory: directory,
		saved:     saved,
		geocoder:  geocoder,
		repo:      repo,
		view:      &viewSurface{},
	}
}

// Handler returns the gin engine with every route registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api")
	api.GET("/events", s.listEvents)
	api.GET("/events/search", s.searchEvents)
	api.GET("/events/nearby", s.eventsAtLocation)
	api.GET("/events/around", s.eventsAround)
	api.GET("/saved", s.listSaved)
	api.POST("/saved", s.saveEvent)
	api.POST("/center", s.centerOnEvent)
	api.POST("/route", s.findRoute)
	api.GET("/view", s.getView)

	return r
}

// Drain applies pipeline commands to the view until ctx is done or the
// pipeline is closed.
func (s *Server) Drain(ctx context.Context) error {
	return s.pipeline.Drain(ctx, s.view)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Map view drain stopped: %v", err)
		}
	}()

	errCh := make(chan error, 1)

	go func() {
		log.Printf("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) listEvents(c *gin.Context) {
	c.JSON(http.StatusOK, s.directory.ListAvailable())
}

func (s *Server) searchEvents(c *gin.Context) {
	c.JSON(http.StatusOK, s.directory.Search(c.Query("q")))
}

func (s *Server) listSaved(c *gin.Context) {
	c.JSON(http.StatusOK, s.saved.List())
}

type labelRequest struct {
	Label string `json:"label" binding:"required"`
}

func (s *Server) saveEvent(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please select an event to save"})

		return
	}

	entry, ok := s.directory.Lookup(req.Label)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown event"})

		return
	}

	s.saved.Save(entry)
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) centerOnEvent(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	s.accepted(c, s.pipeline.CenterOnEvent(req.Label))
}

type routeRequest struct {
	Start string `json:"start"`
	Dest  string `json:"dest"`
}

func (s *Server) findRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	// Empty zip codes are reported through the view, like any other
	// pipeline failure.
	s.accepted(c, s.pipeline.FindRoute(req.Start, req.Dest))
}

func (s *Server) accepted(c *gin.Context, requestID string) {
	if requestID == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "shutting down"})

		return
	}

	c.JSON(http.StatusAccepted, gin.H{"request": requestID})
}

func (s *Server) getView(c *gin.Context) {
	c.JSON(http.StatusOK, s.view.Snapshot())
}

func (s *Server) eventsAtLocation(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no event database configured"})

		return
	}

	location := strings.TrimSpace(c.Query("location"))
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location is required"})

		return
	}

	evts, err := s.repo.FetchEventsForLocation(c.Request.Context(), location)
	if err != nil {
		log.Printf("Fetching events for %s: %v", location, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error fetching events"})

		return
	}

	c.JSON(http.StatusOK, evts)
}

func (s *Server) eventsAround(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no event database configured"})

		return
	}

	zip := strings.TrimSpace(c.Query("zip"))
	if zip == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "zip is required"})

		return
	}

	rings, err := strconv.Atoi(c.DefaultQuery("rings", "2"))
	if err != nil || rings < 0 || rings > 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rings must be between 0 and 10"})

		return
	}

	point, err := s.geocoder.Resolve(c.Request.Context(), zip)
	if err != nil {
		log.Printf("Resolving %s: %v", zip, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "could not find location for zip code " + zip})

		return
	}

	evts, err := s.repo.FetchEventsNear(c.Request.Context(), point, rings)
	if err != nil {
		log.Printf("Fetching events around %s: %v", zip, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error fetching events"})

		return
	}

	c.JSON(http.StatusOK, evts)
}
