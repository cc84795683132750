package http

import (
	"context"
	"net/http"
	"time"

	"schnorrd/internal/config"
	"schnorrd/internal/logging"
	"schnorrd/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	cfg config.Config
	r   *gin.Engine
	log logrus.FieldLogger

	params *usecase.ParamService
	signUC *usecase.SignMessage
	verify *usecase.VerifyMessage
	query  *usecase.SignatureQuery

	keystoreName string
	keystore     Pinger
	metrics      http.Handler
}

type ServerDeps struct {
	Params       *usecase.ParamService
	Keys         usecase.KeyStore
	Policy       usecase.PolicyEngine
	Metrics      usecase.Metrics
	MetricsHTTP  http.Handler
	KeyStoreName string
	Logger       logrus.FieldLogger
}

// NewServer wires the sign, verify and query use cases around deps.
func NewServer(cfg config.Config, deps ServerDeps) *Server {
	maxBytes := int64(cfg.MaxMessageBytes)
	return NewServerWithDeps(cfg, deps, &usecase.SignMessage{
		Params:          deps.Params,
		Keys:            deps.Keys,
		Policy:          deps.Policy,
		MaxMessageBytes: maxBytes,
		Metrics:         deps.Metrics,
		Logger:          deps.Logger,
	}, &usecase.VerifyMessage{
		Params:          deps.Params,
		Keys:            deps.Keys,
		Policy:          deps.Policy,
		MaxMessageBytes: maxBytes,
		Metrics:         deps.Metrics,
		Logger:          deps.Logger,
	})
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps, signUC *usecase.SignMessage, verifyUC *usecase.VerifyMessage) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	r.Use(requestLogger(log))

	s := &Server{
		cfg:          cfg,
		r:            r,
		log:          log,
		params:       deps.Params,
		signUC:       signUC,
		verify:       verifyUC,
		query:        &usecase.SignatureQuery{Keys: deps.Keys},
		keystoreName: deps.KeyStoreName,
		metrics:      deps.MetricsHTTP,
	}
	if p, ok := deps.Keys.(Pinger); ok {
		s.keystore = p
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.r.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.r.GET("/metrics", gin.WrapH(s.metrics))
	}

	v1 := s.r.Group("/v1")
	{
		v1.GET("/params", s.handleGetParams)
		v1.POST("/params", s.requireAdmin, s.handleGenerateParams)
		v1.POST("/params/reload", s.requireAdmin, s.handleReloadParams)
		v1.POST("/signatures", s.handleSign)
		v1.GET("/signatures/:id", s.handleGetSignature)
		v1.POST("/signatures/:id/verify", s.handleVerify)
	}

	s.r.NoRoute(s.handleNoRoute)
}

func (s *Server) Handler() http.Handler {
	return s.r
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request handled")
	}
}
