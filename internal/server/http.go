package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/muezzin/muezzin/internal/api"
	"github.com/muezzin/muezzin/pkg/logger"
)

// desktopOrigins are the origins of the bundled desktop shell.
var desktopOrigins = []string{"tauri://localhost", "http://tauri.localhost", "https://tauri.localhost"}

// HTTPConfig configures the daemon's HTTP server.
type HTTPConfig struct {
	Addr string
	// Secret is the bearer token required by /jsonrpc and /api.
	Secret string
	// CORSOrigins are allowed in addition to loopback and desktop origins.
	CORSOrigins []string
}

// HTTPServer serves JSON-RPC over HTTP POST and WebSocket, plus a small
// read-only REST surface.
type HTTPServer struct {
	cfg      HTTPConfig
	log      logger.Logger
	api      *api.Api
	rpc      *RPCServer
	notifier *RPCNotifier
	engine   *gin.Engine

	mu     sync.Mutex
	server *http.Server
}

func NewHTTPServer(cfg HTTPConfig, a *api.Api, notifier *RPCNotifier, l logger.Logger) *HTTPServer {
	if l == nil {
		l = logger.NewNopLogger()
	}
	if notifier == nil {
		notifier = NewRPCNotifier(l)
	}
	s := &HTTPServer{
		cfg:      cfg,
		log:      l,
		api:      a,
		rpc:      NewRPCServer(a),
		notifier: notifier,
	}
	s.engine = s.routes()
	return s
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(logger.Writer(s.log), "/healthz"))
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(s.cfg.CORSOrigins)))

	r.GET("/healthz", s.healthz)

	auth := requireToken(s.cfg.Secret)
	r.POST("/jsonrpc", auth, gin.WrapH(s.rpc.bridge))
	r.GET("/jsonrpc/ws", auth, s.serveWS)

	rest := r.Group("/api", auth)
	rest.GET("/schedule", s.getSchedule)
	rest.GET("/month", s.getMonth)
	rest.GET("/next", s.getNext)
	rest.GET("/qibla", s.getQibla)
	rest.GET("/audio", s.getAudio)
	return r
}

func corsConfig(extra []string) cors.Config {
	allowed := append(slices.Clone(desktopOrigins), extra...)
	return cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return isLoopbackOrigin(origin) || slices.Contains(allowed, origin)
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
}

func isLoopbackOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Handler returns the router, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Notifier returns the push notifier fed by WebSocket connections.
func (s *HTTPServer) Notifier() *RPCNotifier {
	return s.notifier
}

// Start listens on the configured address and blocks until Shutdown.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln and blocks until Shutdown.
func (s *HTTPServer) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.log.Info("HTTP server listening on %s", ln.Addr())
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, closes WebSocket clients and waits
// for in-flight requests until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.notifier.Close()
	defer s.rpc.Close()

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
