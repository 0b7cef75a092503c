package httpapi

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"
)

const (
	sessionName  = "cafecart_session"
	sessionKeyID = "session_id"

	defaultSessionMaxAge = 7 * 24 * 60 * 60
	sessionKeyLength     = 32
)

// SessionConfig задаёт параметры cookie-сессии.
type SessionConfig struct {
	Secret string
	MaxAge int
	Secure bool
}

// sessionIDs выдаёт браузеру стабильный идентификатор, под которым хранится зеркало корзины.
type sessionIDs struct {
	store *sessions.CookieStore
}

// newSessionIDs создаёт хранилище cookie-сессий. Без секрета ключ подписи генерируется
// на время жизни процесса: после рестарта сервера браузеры получают новые сессии.
func newSessionIDs(cfg SessionConfig, logger *log.Entry) *sessionIDs {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultSessionMaxAge
	}

	hashKey := []byte(cfg.Secret)
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(sessionKeyLength)
		logger.Warn("session secret is not set, using a random key until restart")
	}

	store := sessions.NewCookieStore(hashKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &sessionIDs{store: store}
}

// ensure возвращает id сессии, при необходимости создавая его и выставляя cookie.
func (s *sessionIDs) ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	// Повреждённая или чужая cookie даёт новую сессию, а не ошибку.
	session, _ := s.store.Get(r, sessionName)

	if id, ok := session.Values[sessionKeyID].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	session.Values[sessionKeyID] = id
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return id, nil
}

// lookup возвращает id существующей сессии или пустую строку.
func (s *sessionIDs) lookup(r *http.Request) string {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	id, _ := session.Values[sessionKeyID].(string)
	return id
}
