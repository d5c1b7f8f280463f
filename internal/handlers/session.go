package handlers

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/evergreenmart/storefront/internal/models"
)

const shopperSessionName = "shopper-session"

// shopperID returns the stable id for this browser, minting one on first
// contact. The cookie carries only the id; cart and checkout state live
// server-side.
func shopperID(store *sessions.CookieStore, w http.ResponseWriter, r *http.Request) string {
	session, _ := store.Get(r, shopperSessionName)
	if id, ok := session.Values["shopper_id"].(string); ok && id != "" {
		return id
	}
	id := uuid.New().String()
	session.Values["shopper_id"] = id
	session.Save(r, w)
	return id
}

// identity reads the signed-in shopper from the session, if the auth tier
// has populated it. Token issuance itself happens at the backend.
func identity(store *sessions.CookieStore, r *http.Request) (*models.UserProfile, string) {
	session, _ := store.Get(r, shopperSessionName)
	token, _ := session.Values["bearer_token"].(string)
	if token == "" {
		return nil, ""
	}
	profile := &models.UserProfile{}
	if v, ok := session.Values["user_id"].(string); ok {
		profile.ID, _ = strconv.Atoi(v)
	}
	profile.Name, _ = session.Values["user_name"].(string)
	profile.Email, _ = session.Values["user_email"].(string)
	profile.Phone, _ = session.Values["user_phone"].(string)
	return profile, token
}

// guestSession is the anonymous-session collaborator handed to guest
// checkouts. Discard forgets the token after a successful guest order.
type guestSession struct {
	mu sync.Mutex
	id string
}

func newGuestSession() *guestSession {
	return &guestSession{id: uuid.New().String()}
}

func (g *guestSession) ID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.id
}

func (g *guestSession) Discard() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.id = ""
}
