package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
	"github.com/vladislavdragonenkov/cafecart/internal/metrics"
	"github.com/vladislavdragonenkov/cafecart/internal/service/mirror"
)

const (
	// SaveCartPath - endpoint синхронизации корзины.
	SaveCartPath = "/api/save-cart"
	// CartPath - endpoint чтения зеркала корзины.
	CartPath = "/api/cart"

	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20

	msgInvalidCartData = "Invalid cart data"
	msgCartSaved       = "Cart saved successfully"
	msgCartDeleted     = "Cart deleted"
	msgTooManyRequests = "Too many requests"
)

// Config задаёт параметры HTTP API.
type Config struct {
	Session SessionConfig
}

// Handler обслуживает серверное зеркало корзины.
type Handler struct {
	mirror   *mirror.Service
	sessions *sessionIDs
	limiter  *IPRateLimiter
	metrics  *metrics.MirrorMetrics
	logger   *log.Entry
}

type saveCartResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type cartResponse struct {
	Cart        []domain.CartLine `json:"cart"`
	TotalItems  int               `json:"total_items"`
	TotalAmount float64           `json:"total_amount"`
}

// NewHandler создаёт HTTP API. limiter может быть nil - тогда ограничение выключено.
func NewHandler(svc *mirror.Service, cfg Config, limiter *IPRateLimiter, m *metrics.MirrorMetrics, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	return &Handler{
		mirror:   svc,
		sessions: newSessionIDs(cfg.Session, logger),
		limiter:  limiter,
		metrics:  m,
		logger:   logger,
	}
}

// Routes возвращает маршруты API с middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+SaveCartPath, h.saveCart)
	mux.HandleFunc("GET "+CartPath, h.getCart)
	mux.HandleFunc("DELETE "+CartPath, h.deleteCart)
	return h.withRequestID(h.withRateLimit(mux))
}

func (h *Handler) saveCart(w http.ResponseWriter, r *http.Request) {
	logger := h.requestLogger(r)

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.WithError(err).Warn("failed to read save-cart body")
		writeJSON(w, http.StatusBadRequest, saveCartResponse{Success: false, Message: msgInvalidCartData})
		return
	}

	lines, ok := decodeCartPayload(raw)
	if !ok {
		logger.Warn("invalid cart data")
		writeJSON(w, http.StatusBadRequest, saveCartResponse{Success: false, Message: msgInvalidCartData})
		return
	}

	sessionID, err := h.sessions.ensure(w, r)
	if err != nil {
		logger.WithError(err).Error("error saving cart")
		writeJSON(w, http.StatusInternalServerError, saveCartResponse{Success: false, Message: err.Error()})
		return
	}

	if _, err := h.mirror.Save(r.Context(), sessionID, lines); err != nil {
		logger.WithError(err).WithField("session_id", sessionID).Error("error saving cart")
		writeJSON(w, http.StatusInternalServerError, saveCartResponse{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, saveCartResponse{Success: true, Message: msgCartSaved})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessions.lookup(r)
	if sessionID == "" {
		writeJSON(w, http.StatusOK, cartResponse{Cart: []domain.CartLine{}})
		return
	}

	m, err := h.mirror.Get(r.Context(), sessionID)
	if err != nil {
		h.requestLogger(r).WithError(err).WithField("session_id", sessionID).Error("failed to read cart mirror")
		writeJSON(w, http.StatusInternalServerError, saveCartResponse{Success: false, Message: err.Error()})
		return
	}

	cart := m.Cart()
	writeJSON(w, http.StatusOK, cartResponse{
		Cart:        cart.Lines,
		TotalItems:  cart.TotalItemCount(),
		TotalAmount: cart.TotalAmount(),
	})
}

// deleteCart удаляет зеркало сессии. Запрос без сессии ничего не удаляет и тоже успешен.
func (h *Handler) deleteCart(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessions.lookup(r)
	if sessionID == "" {
		writeJSON(w, http.StatusOK, saveCartResponse{Success: true, Message: msgCartDeleted})
		return
	}

	if err := h.mirror.Delete(r.Context(), sessionID); err != nil {
		h.requestLogger(r).WithError(err).WithField("session_id", sessionID).Error("failed to delete cart mirror")
		writeJSON(w, http.StatusInternalServerError, saveCartResponse{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, saveCartResponse{Success: true, Message: msgCartDeleted})
}

// decodeCartPayload разбирает {"cart": [...]}. null под ключом cart - пустая корзина.
func decodeCartPayload(raw []byte) ([]domain.CartLine, bool) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return nil, false
	}
	cartRaw, ok := body["cart"]
	if !ok {
		return nil, false
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(cartRaw, &lines); err != nil {
		return nil, false
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return lines, true
}

func (h *Handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(domain.WithRequestID(r.Context(), requestID)))
		h.logger.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"request_id":  requestID,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("http request handled")
	})
}

func (h *Handler) withRateLimit(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !h.limiter.Allow(ip) {
			h.metrics.RecordRateLimited()
			h.requestLogger(r).WithField("client_ip", ip).Warn("rate limit exceeded")
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, saveCartResponse{Success: false, Message: msgTooManyRequests})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) requestLogger(r *http.Request) *log.Entry {
	return h.logger.WithField("request_id", domain.RequestIDFromContext(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
