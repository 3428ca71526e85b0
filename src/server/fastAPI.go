package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"quote-observer/src/analysis"
	"quote-observer/src/interfaces"
	"quote-observer/src/logger"
	"quote-observer/src/metrics"
	"quote-observer/src/models"
	"quote-observer/src/normalize"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// FastAPIServer
// -----------------------------------------------------------------------------

type FastAPIServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Store   interfaces.IQuoteStore
	Candles *analysis.CandleService
	Cache   ICandleCache
	Metrics *metrics.Metrics
	Poller  interfaces.IPollStatus

	engine     *gin.Engine
	httpServer *http.Server

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MQuoteUpdate
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	stopOnce   sync.Once

	latestUpdate int64
	stateMutex   sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

// NewFastAPIServer builds the router and starts the websocket hub. cache and
// poller may be nil.
func NewFastAPIServer(cfg *models.MConfig, store interfaces.IQuoteStore, cache ICandleCache, poller interfaces.IPollStatus, m *metrics.Metrics) *FastAPIServer {
	if strings.ToUpper(cfg.LogLevel) != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &FastAPIServer{
		Config:     cfg,
		Logger:     logger.NewLogger("FastAPIServer"),
		Store:      store,
		Candles:    analysis.NewCandleService(store),
		Cache:      cache,
		Metrics:    m,
		Poller:     poller,
		engine:     gin.New(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan *models.MQuoteUpdate, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}

	s.engine.Use(gin.Recovery(), s.metricsMiddleware(), corsMiddleware())
	s.setupRoutes()

	go s.handleWebsockets()
	return s
}

// -----------------------------------------------------------------------------

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.Metrics.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *FastAPIServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/quotes", s.getQuotes)
	api.GET("/quotes/:symbol", s.getQuote)
	api.POST("/quotes", s.postQuote)
	api.GET("/candles/:symbol", s.getCandles)
	api.GET("/health", s.getHealth)

	s.engine.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for tests.
func (s *FastAPIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start listens on host:port and blocks until Stop is called.
func (s *FastAPIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.stateMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.stateMutex.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop drains HTTP requests, then closes every websocket client.
func (s *FastAPIServer) Stop(ctx context.Context) error {
	s.stateMutex.RLock()
	srv := s.httpServer
	s.stateMutex.RUnlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.stopOnce.Do(func() { close(s.stop) })
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *FastAPIServer) getQuotes(c *gin.Context) {
	quotes, err := s.Store.Quotes(c.Request.Context())
	if err != nil {
		s.internalError(c, "list quotes", err)
		return
	}
	c.JSON(http.StatusOK, quotes)
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getQuote(c *gin.Context) {
	symbol := normalize.Symbol(c.Param("symbol"))

	q, ok, err := s.Store.Quote(c.Request.Context(), symbol)
	if err != nil {
		s.internalError(c, "get quote "+symbol, err)
		return
	}
	if !ok {
		respondError(c, http.StatusNotFound, "quote not found")
		return
	}
	c.JSON(http.StatusOK, q)
}

// -----------------------------------------------------------------------------

// postQuote rejects manual ingestion; quotes only enter through the poller.
func (s *FastAPIServer) postQuote(c *gin.Context) {
	respondError(c, http.StatusForbidden, "manual ingestion is disabled")
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getCandles(c *gin.Context) {
	ctx := c.Request.Context()
	symbol := normalize.Symbol(c.Param("symbol"))
	interval := c.DefaultQuery("interval", analysis.DefaultInterval)
	limit := analysis.ParseLimit(c.Query("limit"))

	key := candleCacheKey(symbol, interval, limit)
	if s.Cache != nil {
		if body, ok := s.Cache.Get(ctx, key); ok {
			s.Metrics.RecordCacheLookup(true)
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			return
		}
		s.Metrics.RecordCacheLookup(false)
	}

	resp, err := s.Candles.Candles(ctx, symbol, interval, limit)
	if err != nil {
		s.internalError(c, "candles "+symbol, err)
		return
	}

	if s.Cache != nil {
		s.Cache.Set(ctx, key, resp)
	}
	c.JSON(http.StatusOK, resp)
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	latest := s.latestUpdate
	s.stateMutex.RUnlock()

	body := gin.H{
		"status":        "ok",
		"store":         s.Store.Name(),
		"connections":   connections,
		"latest_update": latest,
	}
	if s.Poller != nil {
		body["poll_in_flight"] = s.Poller.InFlight()
		if last, ok := s.Poller.LastCycle(); ok {
			body["last_cycle"] = last
		}
	}
	c.JSON(http.StatusOK, body)
}
