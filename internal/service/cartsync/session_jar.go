package cartsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

const (
	// SessionSlotSuffix добавляется к слоту корзины для слота cookie сервера.
	SessionSlotSuffix = ".session"

	sessionStoreTimeout = 2 * time.Second
)

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SessionJar - http.CookieJar, который сохраняет cookie cart-server в хранилище снапшотов.
// Так все запуски cartctl с одной базой попадают в одну серверную сессию.
type SessionJar struct {
	jar    *cookiejar.Jar
	store  domain.SnapshotStore
	slot   string
	server *url.URL
	logger *log.Entry

	mu sync.Mutex
}

// NewSessionJar создаёт jar для сервера serverURL и восстанавливает сохранённые cookie из slot.
// Повреждённый слот игнорируется: сервер выдаст новую сессию.
func NewSessionJar(ctx context.Context, store domain.SnapshotStore, slot, serverURL string, logger *log.Entry) (*SessionJar, error) {
	server, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if logger == nil {
		logger = log.WithField("component", "cart-session-jar")
	}

	j := &SessionJar{
		jar:    jar,
		store:  store,
		slot:   slot,
		server: server,
		logger: logger,
	}
	j.restore(ctx)
	return j, nil
}

// Cookies реализует http.CookieJar.
func (j *SessionJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// SetCookies реализует http.CookieJar и сразу сохраняет cookie сервера.
func (j *SessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
	if len(cookies) > 0 {
		j.persist()
	}
}

func (j *SessionJar) restore(ctx context.Context) {
	raw, err := j.store.Get(ctx, j.slot)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			j.logger.WithError(err).Warn("failed to load server session")
		}
		return
	}

	var stored []storedCookie
	if err := json.Unmarshal(raw, &stored); err != nil {
		j.logger.WithError(err).Warn("malformed server session, starting a new one")
		return
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	j.jar.SetCookies(j.server, cookies)
}

func (j *SessionJar) persist() {
	j.mu.Lock()
	defer j.mu.Unlock()

	current := j.jar.Cookies(j.server)
	stored := make([]storedCookie, 0, len(current))
	for _, c := range current {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}

	ctx, cancel := context.WithTimeout(context.Background(), sessionStoreTimeout)
	defer cancel()

	if len(stored) == 0 {
		if err := j.store.Delete(ctx, j.slot); err != nil {
			j.logger.WithError(err).Warn("failed to drop server session")
		}
		return
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		j.logger.WithError(err).Warn("failed to encode server session")
		return
	}
	if err := j.store.Put(ctx, j.slot, raw); err != nil {
		j.logger.WithError(err).Warn("failed to save server session")
	}
}

var _ http.CookieJar = (*SessionJar)(nil)
