package cartsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

const (
	// SaveCartPath - endpoint серверного зеркала корзины.
	SaveCartPath = "/api/save-cart"
	// RequestIDHeader - заголовок корреляции запросов синхронизации.
	RequestIDHeader = "X-Request-ID"

	defaultHTTPTimeout = 10 * time.Second
	maxResponseBytes   = 1 << 20
)

// HTTPOptions задаёт параметры HTTPSyncer.
type HTTPOptions struct {
	Logger    *log.Entry
	Client    *http.Client
	Path      string
	UserAgent string
}

// HTTPOption настраивает HTTPSyncer.
type HTTPOption func(*HTTPOptions)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) HTTPOption {
	return func(opts *HTTPOptions) {
		opts.Logger = logger
	}
}

// WithHTTPClient задаёт http-клиент (таймауты, транспорт).
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(opts *HTTPOptions) {
		opts.Client = client
	}
}

// WithUserAgent задаёт заголовок User-Agent.
func WithUserAgent(userAgent string) HTTPOption {
	return func(opts *HTTPOptions) {
		opts.UserAgent = userAgent
	}
}

// WithPath переопределяет путь endpoint.
func WithPath(path string) HTTPOption {
	return func(opts *HTTPOptions) {
		opts.Path = path
	}
}

type saveCartRequest struct {
	Cart []domain.CartLine `json:"cart"`
}

type saveCartResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// HTTPSyncer отправляет корзину POST-запросом на /api/save-cart.
type HTTPSyncer struct {
	endpoint  string
	userAgent string
	client    *http.Client
	logger    *log.Entry
}

// NewHTTPSyncer создаёт синхронизатор для сервера baseURL.
func NewHTTPSyncer(baseURL string, options ...HTTPOption) *HTTPSyncer {
	opts := HTTPOptions{Path: SaveCartPath}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "cart-http-syncer")
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	path := opts.Path
	if path == "" {
		path = SaveCartPath
	}

	return &HTTPSyncer{
		endpoint:  strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/"),
		userAgent: opts.UserAgent,
		client:    client,
		logger:    logger,
	}
}

// Endpoint возвращает полный URL синхронизации.
func (s *HTTPSyncer) Endpoint() string {
	return s.endpoint
}

// Push отправляет полный список позиций. Ошибки классифицируются sentinel-ошибками domain.ErrSync*.
func (s *HTTPSyncer) Push(ctx context.Context, lines []domain.CartLine) (domain.SyncResult, error) {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	result := domain.SyncResult{RequestID: uuid.NewString()}

	body, err := json.Marshal(saveCartRequest{Cart: lines})
	if err != nil {
		return result, fmt.Errorf("marshal save-cart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("build save-cart request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, result.RequestID)
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return result, fmt.Errorf("%w: %v", domain.ErrSyncTransport, err)
	}
	defer resp.Body.Close()
	result.StatusCode = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return result, fmt.Errorf("%w: read body: %v", domain.ErrSyncTransport, err)
	}

	var payload saveCartResponse
	decodeErr := json.Unmarshal(raw, &payload)
	if decodeErr == nil {
		result.Message = payload.Message
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, fmt.Errorf("%w: %d", domain.ErrSyncHTTPStatus, resp.StatusCode)
	}
	if decodeErr != nil {
		return result, fmt.Errorf("%w: %v", domain.ErrSyncMalformedResponse, decodeErr)
	}
	if payload.Success == nil {
		return result, fmt.Errorf("%w: missing success field", domain.ErrSyncMalformedResponse)
	}

	result.Success = *payload.Success
	if !result.Success {
		return result, fmt.Errorf("%w: %s", domain.ErrSyncRejected, payload.Message)
	}

	s.logger.WithFields(log.Fields{
		"request_id": result.RequestID,
		"lines":      len(lines),
	}).Debug("cart pushed")
	return result, nil
}

var _ domain.CartSyncer = (*HTTPSyncer)(nil)
