package stub

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chaitanya-699/url-shortener/internal/analytics"
	"github.com/chaitanya-699/url-shortener/internal/auth"
	"github.com/chaitanya-699/url-shortener/internal/domain"
	"github.com/chaitanya-699/url-shortener/internal/log"
	"github.com/chaitanya-699/url-shortener/internal/shortener"
)

const (
	contentTypeHeader = "Content-Type"
	applicationJSON   = "application/json"

	invalidCredentialsMessage = "Invalid email or password"
	emailTakenMessage         = "Email already registered"
	unknownGuestMessage       = "Unknown guest"
	urlNotFoundMessage        = "URL not found"
	urlIsEmptyMessage         = "URL is required"
)

type user struct {
	id        string
	email     string
	name      string
	password  string
	resetCode string
}

type click struct {
	at       time.Time
	country  string
	browser  string
	device   string
	os       string
	referrer string
	ip       string
}

type link struct {
	id          string
	originalURL string
	shortCode   string
	description string
	createdAt   time.Time
	ownerRef    string
	clicks      []click
}

// Server is an in-process double of the remote shortening API. It keeps all
// state in memory and speaks the same wire contract the client consumes, so
// the client can be exercised end to end without the real backend.
type Server struct {
	mu     sync.Mutex
	users  map[string]*user // keyed by email
	guests map[string]struct{}
	links  map[string]*link // keyed by short code

	router chi.Router
	auth   *auth.UserAuth
	logger *zap.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates the stub server.
func New(options ...Option) *Server {
	r := chi.NewRouter()
	s := &Server{
		users:  make(map[string]*user),
		guests: make(map[string]struct{}),
		links:  make(map[string]*link),
		router: r,
		auth:   auth.New(auth.SecretKey, auth.TokenExp),
		logger: zap.NewNop(),
	}

	for _, opt := range options {
		opt(s)
	}

	r.Use(log.RequestResponseLogger(s.logger))

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.AllowContentType(applicationJSON))

		r.Post("/api/auth/register", s.register)
		r.Post("/api/auth/login", s.login)
		r.Post("/api/auth/login/guest", s.guestLogin)
		r.Post("/api/auth/login/forgotPassword", s.forgotPassword)
		r.Post("/api/auth/login/verifyCode", s.verifyCode)
		r.Post("/api/auth/login/resetPassword", s.resetPassword)
		r.Post("/api/url", s.createLink)
		r.Post("/api/url/all", s.listGuestLinks)
		r.Post("/api/url/delete", s.deleteLink)
	})

	r.Get("/api/auth/login/me", s.me)
	r.Get("/api/logout", s.logout)
	r.Get("/api/url/all", s.listUserLinks)
	r.Get("/api/url/analytics/{code}", s.linkAnalytics)
	r.Get("/{code}", s.redirect)

	return s
}

// ServeHTTP handles the request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set(contentTypeHeader, applicationJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeMessage(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"message": message})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

// currentUser resolves the authenticated user from the session cookie.
func (s *Server) currentUser(r *http.Request) *user {
	userID, err := s.auth.GetUserID(r)
	if err != nil {
		return nil
	}

	for _, u := range s.users {
		if u.id == userID {
			return u
		}
	}
	return nil
}

func (s *Server) setSessionCookie(w http.ResponseWriter, userID string) {
	cookie, err := s.auth.CreateCookie(userID)
	if err != nil {
		s.logger.Error("failed to create session cookie", zap.Error(err))
		return
	}
	http.SetCookie(w, cookie)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var request credentialsRequest
	if !s.decode(w, r, &request) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.users[request.Email]; taken {
		s.writeMessage(w, http.StatusConflict, emailTakenMessage)
		return
	}

	u := &user{
		id:       uuid.NewString(),
		email:    request.Email,
		password: request.Password,
	}
	s.users[request.Email] = u

	s.setSessionCookie(w, u.id)
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"id":      u.id,
		"email":   u.email,
		"message": "Account created",
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var request credentialsRequest
	if !s.decode(w, r, &request) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[request.Email]
	if !ok || u.password != request.Password {
		s.writeMessage(w, http.StatusUnauthorized, invalidCredentialsMessage)
		return
	}

	s.setSessionCookie(w, u.id)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"id":      u.id,
		"email":   u.email,
		"name":    u.name,
		"message": "Logged in",
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.currentUser(r)
	if u == nil {
		s.writeMessage(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"id":    u.id,
		"email": u.email,
		"name":  u.name,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.auth.ExpiredCookie())
	s.writeMessage(w, http.StatusOK, "Logged out successfully")
}

type guestRequest struct {
	GuestID string `json:"guestId"`
}

func (s *Server) guestLogin(w http.ResponseWriter, r *http.Request) {
	var request guestRequest
	if !s.decode(w, r, &request) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, known := s.guests[request.GuestID]; !known {
		s.writeMessage(w, http.StatusNotFound, unknownGuestMessage)
		return
	}

	s.writeMessage(w, http.StatusOK, "Guest session restored")
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var request forgotPasswordRequest
	if !s.decode(w, r, &request) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[request.Email]
	if !ok {
		s.writeMessage(w, http.StatusNotFound, "Email not found")
		return
	}

	u.resetCode = shortener.Shorten(uuid.New().ID())
	s.writeMessage(w, http.StatusOK, "Reset code sent")
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (s *Server) verifyCode(w http.ResponseWriter, r *http.Request) {
	var request verifyCodeRequest
	if !s.decode(w, r, &request) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[request.Email]
	if !ok || u.resetCode == "" || u.resetCode != request.Code {
		s.writeMessage(w, http.StatusBadRequest, "Invalid or expired code")
		return
	}

	s.writeMessage(w, http.StatusOK, "Code verified")
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var request resetPasswordRequest
	if !s.decode(w, r, &request) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[request.Email]
	if !ok || u.resetCode == "" || u.resetCode != request.Code {
		s.writeMessage(w, http.StatusBadRequest, "Invalid or expired code")
		return
	}

	u.password = request.NewPassword
	u.resetCode = ""
	s.writeMessage(w, http.StatusOK, "Password reset")
}

type createLinkRequest struct {
	OriginalURL string `json:"originalUrl"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
	GuestID     string `json:"guestId"`
}

func (s *Server) createLink(w http.ResponseWriter, r *http.Request) {
	var request createLinkRequest
	if !s.decode(w, r, &request) {
		return
	}

	if request.OriginalURL == "" {
		s.writeMessage(w, http.StatusBadRequest, urlIsEmptyMessage)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mintedGuestID := ""
	ownerRef := ""

	switch u := s.currentUser(r); {
	case u != nil:
		ownerRef = u.id
	case request.UserID != "":
		ownerRef = request.UserID
	case request.GuestID != "":
		ownerRef = request.GuestID
		s.guests[request.GuestID] = struct{}{}
	default:
		// First action of a brand-new visitor: mint a guest for them.
		mintedGuestID = domain.NewGuestID()
		ownerRef = mintedGuestID
		s.guests[mintedGuestID] = struct{}{}
	}

	l := &link{
		id:          uuid.NewString(),
		originalURL: request.OriginalURL,
		shortCode:   shortener.Shorten(uuid.New().ID()),
		description: request.Description,
		createdAt:   time.Now().UTC(),
		ownerRef:    ownerRef,
	}
	s.links[l.shortCode] = l

	body := s.linkBody(r, l)
	if mintedGuestID != "" {
		body["guestId"] = mintedGuestID
	}
	s.writeJSON(w, http.StatusCreated, body)
}

func (s *Server) linkBody(r *http.Request, l *link) map[string]any {
	return map[string]any{
		"id":          l.id,
		"originalUrl": l.originalURL,
		"shortUrl":    "http://" + r.Host + "/" + l.shortCode,
		"shortCode":   l.shortCode,
		"description": l.description,
		"createdAt":   l.createdAt.Format(time.RFC3339Nano),
		"totalClicks": len(l.clicks),
	}
}

func (s *Server) ownedLinks(r *http.Request, ownerRef string) []map[string]any {
	owned := []map[string]any{}
	for _, l := range s.links {
		if l.ownerRef == ownerRef {
			owned = append(owned, s.linkBody(r, l))
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		return owned[i]["createdAt"].(string) > owned[j]["createdAt"].(string)
	})
	return owned
}

func (s *Server) listUserLinks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.currentUser(r)
	if u == nil {
		s.writeMessage(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	s.writeJSON(w, http.StatusOK, s.ownedLinks(r, u.id))
}

func (s *Server) listGuestLinks(w http.ResponseWriter, r *http.Request) {
	var request guestRequest
	if !s.decode(w, r, &request) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, s.ownedLinks(r, request.GuestID))
}

type deleteLinkRequest struct {
	OwnerRef string `json:"ownerRef"`
	URLCode  string `json:"urlCode"`
}

func (s *Server) deleteLink(w http.ResponseWriter, r *http.Request) {
	var request deleteLinkRequest
	if !s.decode(w, r, &request) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[request.URLCode]
	if !ok || l.ownerRef != request.OwnerRef {
		s.writeMessage(w, http.StatusNotFound, urlNotFoundMessage)
		return
	}

	delete(s.links, request.URLCode)
	s.writeMessage(w, http.StatusOK, "URL deleted successfully")
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	s.mu.Lock()
	l, ok := s.links[code]
	if ok {
		l.clicks = append(l.clicks, clickFromRequest(r))
	}
	s.mu.Unlock()

	if !ok {
		s.writeMessage(w, http.StatusNotFound, urlNotFoundMessage)
		return
	}

	w.Header().Set("Location", l.originalURL)
	w.WriteHeader(http.StatusTemporaryRedirect)
}

func clickFromRequest(r *http.Request) click {
	ip := r.RemoteAddr
	if i := strings.LastIndex(ip, ":"); i >= 0 {
		ip = ip[:i]
	}

	return click{
		at:       time.Now().UTC(),
		country:  "Unknown",
		browser:  browserFromUserAgent(r.UserAgent()),
		device:   "Desktop",
		os:       "Unknown",
		referrer: r.Referer(),
		ip:       ip,
	}
}

func browserFromUserAgent(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Firefox"):
		return "Firefox"
	case strings.Contains(userAgent, "Chrome"):
		return "Chrome"
	case strings.Contains(userAgent, "Safari"):
		return "Safari"
	default:
		return "Other"
	}
}

func (s *Server) linkAnalytics(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[code]
	if !ok {
		s.writeMessage(w, http.StatusNotFound, urlNotFoundMessage)
		return
	}

	s.writeJSON(w, http.StatusOK, buildAnalytics(l))
}

func buildAnalytics(l *link) analytics.Payload {
	payload := analytics.Payload{
		TotalClicks: len(l.clicks),
	}

	countries := map[string]int{}
	browsers := map[string]int{}
	devices := map[string]int{}
	systems := map[string]int{}
	referrers := map[string]int{}
	ips := map[string]int{}

	now := time.Now().UTC()
	for _, c := range l.clicks {
		countries[c.country]++
		browsers[c.browser]++
		devices[c.device]++
		systems[c.os]++
		if c.referrer != "" {
			referrers[c.referrer]++
		}
		ips[c.ip]++

		if c.at.After(now.Truncate(24 * time.Hour)) {
			payload.ClicksToday++
		}
		if c.at.After(now.AddDate(0, 0, -7)) {
			payload.ClicksThisWeek++
		}
	}

	payload.UniqueClicks = len(ips)

	for country, clicks := range countries {
		payload.TopCountries = append(payload.TopCountries, analytics.CountryClicks{Country: country, Clicks: clicks})
	}
	for browser, clicks := range browsers {
		payload.TopBrowsers = append(payload.TopBrowsers, analytics.BrowserClicks{Browser: browser, Clicks: clicks})
	}
	for device, clicks := range devices {
		share := 0
		if len(l.clicks) > 0 {
			share = clicks * 100 / len(l.clicks)
		}
		payload.DeviceBreakdown = append(payload.DeviceBreakdown, analytics.DeviceShare{Device: device, Percentage: share})
	}
	for os, clicks := range systems {
		payload.OSBreakdown = append(payload.OSBreakdown, analytics.OSClicks{OS: os, Clicks: clicks})
	}
	for referrer, clicks := range referrers {
		payload.TopReferrers = append(payload.TopReferrers, analytics.ReferrerClicks{Referrer: referrer, Clicks: clicks})
	}
	for ip, clicks := range ips {
		payload.IPAddresses = append(payload.IPAddresses, analytics.IPClicks{IP: ip, Clicks: clicks})
	}

	recent := l.clicks
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	for i := len(recent) - 1; i >= 0; i-- {
		c := recent[i]
		payload.RecentClicks = append(payload.RecentClicks, analytics.RecentClick{
			Timestamp: c.at.Format(time.RFC3339),
			Country:   c.country,
			Browser:   c.browser,
			IP:        c.ip,
		})
	}

	return payload
}
