// Package httpapi exposes sharpness scoring over HTTP for upload frontends
// that cannot speak MCP.
package httpapi

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/photo-sharpness-mcp/internal/imaging"
	"github.com/ironsheep/photo-sharpness-mcp/internal/ledger"
	"github.com/ironsheep/photo-sharpness-mcp/internal/logging"
	"github.com/ironsheep/photo-sharpness-mcp/internal/scorecache"
	"github.com/ironsheep/photo-sharpness-mcp/internal/sharpness"
)

// DefaultMaxUploadBytes is used when Options.MaxUploadBytes is not positive.
const DefaultMaxUploadBytes = 20 << 20

// multipartOverhead is allowed on top of the file limit for form fields and
// part headers.
const multipartOverhead = 1 << 20

// Options configures the API.
type Options struct {
	Threshold      float64
	MaxUploadBytes int64
	CacheTTL       time.Duration

	// Cache defaults to an in-process MemoryCache.
	Cache scorecache.Cache

	// Store is optional; history endpoints answer 503 without it.
	Store *ledger.Store

	Logger *zap.Logger
}

// API holds the dependencies of the HTTP handlers.
type API struct {
	opts   Options
	logger *zap.Logger
}

// New creates an API, filling unset options with defaults.
func New(opts Options) *API {
	if opts.Threshold <= 0 {
		opts.Threshold = sharpness.DefaultBlurThreshold
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.Cache == nil {
		opts.Cache = scorecache.NewMemoryCache()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &API{opts: opts, logger: opts.Logger}
}

// NewRouter returns a gin engine with recovery, request logging and every
// route registered.
func NewRouter(api *API) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(api.logger))
	router.MaxMultipartMemory = api.opts.MaxUploadBytes
	api.RegisterRoutes(router)
	return router
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func (a *API) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", a.health)

	v1 := router.Group("/api/v1")
	v1.POST("/sharpness", a.scoreUpload)
	v1.GET("/assessments", a.listAssessments)
	v1.GET("/assessments/summary", a.summary)
}

func (a *API) health(c *gin.Context) {
	cache := "memory"
	if _, ok := a.opts.Cache.(*scorecache.RedisCache); ok {
		cache = "redis"
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ledger": a.opts.Store != nil,
		"cache":  cache,
	})
}

// ScoreResponse is the body of a successful POST /api/v1/sharpness.
type ScoreResponse struct {
	RequestID string `json:"request_id"`
	Filename  string `json:"filename"`
	Cached    bool   `json:"cached"`
	sharpness.Assessment
}

func (a *API) scoreUpload(c *gin.Context) {
	requestID := requestIDFrom(c)
	opLogger := logging.WithOperation(a.logger, "http.sharpness", requestID)

	threshold := a.opts.Threshold
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.opts.MaxUploadBytes+multipartOverhead)

	file, err := c.FormFile("photo")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo exceeds upload limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	if file.Size > a.opts.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo exceeds upload limit"})
		return
	}

	if v := c.PostForm("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a non-negative number"})
			return
		}
		if t > 0 {
			threshold = t
		}
	}

	data, err := readUpload(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read photo"})
		return
	}
	if !isImage(data, file.Header.Get("Content-Type")) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "upload is not an image"})
		return
	}

	ctx := c.Request.Context()
	key := scorecache.Key(data)
	resp := ScoreResponse{RequestID: requestID, Filename: file.Filename}

	entry, err := a.opts.Cache.Get(ctx, key)
	switch {
	case err == nil:
		resp.Cached = true
	case errors.Is(err, scorecache.ErrMiss):
	default:
		opLogger.Warn("failed to read score cache", zap.Error(err))
	}

	if !resp.Cached {
		img, err := imaging.Decode(data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		b := img.Bounds()
		entry = scorecache.Entry{Score: sharpness.Score(img), Width: b.Dx(), Height: b.Dy()}
		if err := a.opts.Cache.Set(ctx, key, entry, a.opts.CacheTTL); err != nil {
			opLogger.Warn("failed to write score cache", zap.Error(err))
		}
	}

	resp.Assessment = sharpness.Classify(entry.Score, threshold, entry.Width, entry.Height)

	if a.opts.Store != nil {
		if _, err := a.opts.Store.Add(ctx, ledger.NewRecord(ledger.SourceHTTP, file.Filename, resp.Assessment)); err != nil {
			opLogger.Error("failed to record assessment", zap.Error(err))
		}
	}

	opLogger.Info("photo scored",
		zap.String("filename", file.Filename),
		zap.Float64("score", resp.Score),
		zap.Bool("blurry", resp.Blurry),
		zap.Bool("cached", resp.Cached))
	c.JSON(http.StatusOK, resp)
}

func (a *API) listAssessments(c *gin.Context) {
	limit := ledger.DefaultLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	recs, err := a.opts.Store.Recent(c.Request.Context(), limit)
	if err != nil {
		a.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessments": recs})
}

func (a *API) summary(c *gin.Context) {
	sum, err := a.opts.Store.Summarize(c.Request.Context())
	if err != nil {
		a.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (a *API) storeError(c *gin.Context, err error) {
	if errors.Is(err, ledger.ErrDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	a.logger.Error("ledger query failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read assessments"})
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

// isImage trusts content sniffing first and falls back to the part's declared
// type for formats the sniffer does not know, such as TIFF.
func isImage(data []byte, declared string) bool {
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return true
	}
	return sniffed == "application/octet-stream" && strings.HasPrefix(declared, "image/")
}
