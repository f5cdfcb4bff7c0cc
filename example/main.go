package main

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/aadithya-v/huginn"
	"github.com/aadithya-v/huginn/store"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.InfoLevel,
		Prefix:          "huginn",
	})

	cfg := huginn.DefaultConfig()
	if path := os.Getenv("HUGINN_CONFIG"); path != "" {
		fileCfg, err := huginn.LoadConfigFile(path)
		if err != nil {
			logger.Fatal("failed to load config", "path", path, "err", err)
		}
		cfg = fileCfg
	}
	cfg.Logger = logger
	cfg.MetricsRegisterer = prometheus.DefaultRegisterer
	cfg.GeoIPDatabasePath = envOr("HUGINN_GEOIP_DB", cfg.GeoIPDatabasePath)

	// Zero-config is SQLite. MySQL and Redis are opt-in.
	if dsn := os.Getenv("HUGINN_MYSQL_DSN"); dsn != "" {
		mysqlStore, err := store.NewMySQLFromDSN(dsn)
		if err != nil {
			logger.Fatal("failed to connect to MySQL", "err", err)
		}
		cfg.ReportStore = mysqlStore
	}
	if addr := os.Getenv("HUGINN_REDIS_ADDR"); addr != "" {
		redisCache, err := store.NewRedisFromConfig(store.RedisConfig{
			Addr:     addr,
			Password: os.Getenv("HUGINN_REDIS_PASSWORD"),
		})
		if err != nil {
			logger.Fatal("failed to connect to Redis", "err", err)
		}
		cfg.CorroborationCache = redisCache
	}

	h, err := huginn.New(cfg)
	if err != nil {
		logger.Fatal("failed to initialize Huginn", "err", err)
	}
	defer h.Close()

	srv := &server{
		h:         h,
		logger:    logger,
		threshold: cfg.HighConfidenceThreshold,
		limiters:  make(map[string]*rate.Limiter),
	}
	srv.refresh()

	// Alerting clients poll /api/zone; keep their cluster set fresh.
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", srv.refresh); err != nil {
		logger.Fatal("failed to schedule cluster refresh", "err", err)
	}
	c.Start()
	defer c.Stop()

	addr := envOr("HUGINN_ADDR", ":8080")
	logger.Info("example server running", "addr", addr)
	if err := srv.router().Run(addr); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}

type server struct {
	h         *huginn.Huginn
	logger    *log.Logger
	threshold float64

	mu       sync.RWMutex
	clusters []huginn.ReportCluster

	// Submissions are serialized here; the store expects a single writer.
	writeMu sync.Mutex

	limitMu  sync.Mutex
	limiters map[string]*rate.Limiter
}

func (s *server) router() *gin.Engine {
	r := gin.Default()

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/reports", s.rateLimit, s.submitReport)
		api.GET("/reports", s.listReports)
		api.POST("/reports/:id/verify", s.rateLimit, s.verifyReport)
		api.GET("/clusters", s.listClusters)
		api.GET("/zone", s.checkZone)
		api.GET("/zones.geojson", s.zonesGeoJSON)
		api.GET("/heatmap", s.heatmap)
	}

	return r
}

// refresh recomputes the cached cluster set.
func (s *server) refresh() {
	clusters, err := s.h.Clusters()
	if err != nil {
		s.logger.Error("cluster refresh failed", "err", err)
		return
	}

	s.mu.Lock()
	s.clusters = clusters
	s.mu.Unlock()
}

func (s *server) cachedClusters() []huginn.ReportCluster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clusters
}

// rateLimit allows each client IP one write per second with a burst of five.
func (s *server) rateLimit(c *gin.Context) {
	ip := c.ClientIP()

	s.limitMu.Lock()
	limiter, ok := s.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Second), 5)
		s.limiters[ip] = limiter
	}
	s.limitMu.Unlock()

	if !limiter.Allow() {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}
	c.Next()
}

type submitRequest struct {
	Type      string           `json:"type" binding:"required"`
	Location  *huginn.Location `json:"location"`
	Details   string           `json:"details"`
	Severity  huginn.Severity  `json:"severity"`
	Timestamp int64            `json:"timestamp"`
}

func (s *server) submitReport(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.writeMu.Lock()
	report, err := s.h.SubmitReportFromRequest(c.Request, huginn.Report{
		Type:      huginn.IncidentType(req.Type),
		Location:  req.Location,
		Details:   req.Details,
		Severity:  req.Severity,
		Timestamp: req.Timestamp,
	})
	s.writeMu.Unlock()

	if errors.Is(err, huginn.ErrInvalidLocation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, report)
}

func (s *server) listReports(c *gin.Context) {
	filter := huginn.ReportFilter{
		LocatedOnly:  c.Query("located") == "true",
		VerifiedOnly: c.Query("verified") == "true",
	}
	if t := c.Query("type"); t != "" {
		filter.Type = huginn.ParseIncidentType(t)
	}
	if since := c.Query("since"); since != "" {
		v, err := strconv.ParseInt(since, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be epoch milliseconds"})
			return
		}
		filter.Since = v
	}

	reports, err := s.h.Reports(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports, "count": len(reports)})
}

func (s *server) verifyReport(c *gin.Context) {
	s.writeMu.Lock()
	report, err := s.h.VerifyReport(c.Param("id"), c.Query("verifier_id"))
	s.writeMu.Unlock()

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *server) listClusters(c *gin.Context) {
	clusters := s.cachedClusters()
	c.JSON(http.StatusOK, gin.H{"clusters": clusters, "count": len(clusters)})
}

func (s *server) checkZone(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon required"})
		return
	}

	zone, err := s.h.CheckZoneIn(lat, lon, s.cachedClusters())
	if errors.Is(err, huginn.ErrInvalidLocation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"in_zone": zone != nil, "zone": zone})
}

func (s *server) zonesGeoJSON(c *gin.Context) {
	c.JSON(http.StatusOK, huginn.ClustersGeoJSON(s.cachedClusters(), s.threshold))
}

func (s *server) heatmap(c *gin.Context) {
	var bounds huginn.Bounds
	for key, dst := range map[string]*float64{
		"north": &bounds.North,
		"south": &bounds.South,
		"east":  &bounds.East,
		"west":  &bounds.West,
	} {
		v, err := strconv.ParseFloat(c.Query(key), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": key + " required"})
			return
		}
		*dst = v
	}

	points, err := s.h.Heatmap(bounds)
	if errors.Is(err, huginn.ErrInvalidLocation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if c.Query("format") == "geojson" {
		c.JSON(http.StatusOK, huginn.HeatmapGeoJSON(points, bounds))
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points, "count": len(points)})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
