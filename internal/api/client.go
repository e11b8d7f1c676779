package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/chaitanya-699/url-shortener/internal/analytics"
	"github.com/chaitanya-699/url-shortener/internal/domain"
)

const (
	mePath             = "/api/auth/login/me"
	loginPath          = "/api/auth/login"
	registerPath       = "/api/auth/register"
	logoutPath         = "/api/logout"
	guestLoginPath     = "/api/auth/login/guest"
	forgotPasswordPath = "/api/auth/login/forgotPassword"
	verifyCodePath     = "/api/auth/login/verifyCode"
	resetPasswordPath  = "/api/auth/login/resetPassword"
	createLinkPath     = "/api/url"
	listLinksPath      = "/api/url/all"
	deleteLinkPath     = "/api/url/delete"
	analyticsPath      = "/api/url/analytics/{code}"

	authCookieName = "jwt"
)

// Client talks to the remote URL-shortening API. The auth token is shared
// between the caller's goroutine and background refreshes, so access goes
// through the mutex.
type Client struct {
	inner   *resty.Client
	baseURL string

	mu        sync.Mutex
	authToken string
}

// Option configures the client.
type Option func(*Client)

// New creates a client with the given options.
func New(options ...Option) *Client {
	client := &Client{
		inner: resty.New(),
	}

	client.inner.SetRedirectPolicy(
		resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}),
	)

	// The server refreshes the session cookie on auth responses; capture it so
	// the session can persist it between runs.
	client.inner.OnAfterResponse(func(_ *resty.Client, response *resty.Response) error {
		for _, cookie := range response.Cookies() {
			if cookie.Name == authCookieName && cookie.Value != "" {
				client.SetAuthToken(cookie.Value)
			}
		}
		return nil
	})

	for _, opt := range options {
		opt(client)
	}

	return client
}

// WithBaseURL sets the API base address.
func WithBaseURL(addr string) Option {
	return func(client *Client) {
		client.baseURL = addr
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.inner.SetTimeout(d)
	}
}

// SetAuthToken attaches a session token to subsequent requests. An empty
// token detaches it.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.authToken = token
}

// AuthToken returns the current session token, if any.
func (c *Client) AuthToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.authToken
}

func (c *Client) request(ctx context.Context) *resty.Request {
	request := c.inner.R().SetContext(ctx)

	if token := c.AuthToken(); token != "" {
		request.SetCookie(&http.Cookie{
			Name:  authCookieName,
			Value: token,
		})
	}

	return request
}

// Me resolves the authenticated session, if any. A not-authenticated response
// is a normal outcome and returns (nil, nil); only transport failures error.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	const op = "check auth session"
	response, err := c.request(ctx).Get(c.baseURL + mePath)

	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	user, ok := normalizeUser(response.Body())

	if !response.IsSuccess() || !ok {
		return nil, nil
	}

	return user, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with email and password. On success it returns the user
// and the server's message; on rejection it returns a ServerError carrying
// the server's reason.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	return c.authenticate(ctx, loginPath, email, password, "Signed in successfully!", "Login failed")
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, email, password string) (*domain.User, string, error) {
	return c.authenticate(ctx, registerPath, email, password, "Account created successfully!", "Registration failed")
}

func (c *Client) authenticate(ctx context.Context, path, email, password, okMsg, failMsg string) (*domain.User, string, error) {
	const op = "authenticate"
	response, err := c.request(ctx).
		SetBody(credentialsRequest{Email: email, Password: password}).
		Post(c.baseURL + path)

	if err != nil {
		return nil, "", errors.Wrap(err, op)
	}

	user, ok := normalizeUser(response.Body())

	if !response.IsSuccess() || !ok {
		return nil, "", &ServerError{
			Message:    normalizeMessage(response.Body(), failMsg),
			StatusCode: response.StatusCode(),
		}
	}

	return user, normalizeMessage(response.Body(), okMsg), nil
}

// Logout ends the server-side session and returns the server's message.
func (c *Client) Logout(ctx context.Context) (string, error) {
	const op = "logout"
	response, err := c.request(ctx).Get(c.baseURL + logoutPath)

	if err != nil {
		return "", errors.Wrap(err, op)
	}

	return normalizeMessage(response.Body(), "Logged out successfully"), nil
}

type guestLoginRequest struct {
	GuestID string `json:"guestId"`
}

// GuestLogin binds the session to a previously issued guest id. The server
// rejects unknown ids; this never creates a new guest.
func (c *Client) GuestLogin(ctx context.Context, guestID string) (string, error) {
	const op = "guest login"
	response, err := c.request(ctx).
		SetBody(guestLoginRequest{GuestID: guestID}).
		Post(c.baseURL + guestLoginPath)

	if err != nil {
		return "", errors.Wrap(err, op)
	}

	if !response.IsSuccess() {
		return "", &ServerError{
			Message:    normalizeMessage(response.Body(), "Guest session not found"),
			StatusCode: response.StatusCode(),
		}
	}

	return normalizeMessage(response.Body(), "Guest session restored!"), nil
}

type createLinkRequest struct {
	OriginalURL string `json:"originalUrl"`
	Description string `json:"description,omitempty"`
	UserID      string `json:"userId,omitempty"`
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`
	GuestID     string `json:"guestId,omitempty"`
}

// CreateLink shortens a URL for the given identity. When a first-time guest
// creates a link the server may mint a guest id; it is returned alongside the
// record for the session to adopt.
func (c *Client) CreateLink(ctx context.Context, identity domain.Identity, originalURL, description string) (domain.LinkRecord, string, error) {
	const op = "create link"
	request := createLinkRequest{
		OriginalURL: originalURL,
		Description: description,
	}

	if identity.IsAuthenticated() {
		request.UserID = identity.User.ID
		request.Email = identity.User.Email
		request.Name = identity.User.Name
	} else {
		request.GuestID = identity.GuestID
	}

	response, err := c.request(ctx).
		SetBody(request).
		Post(c.baseURL + createLinkPath)

	if err != nil {
		return domain.LinkRecord{}, "", errors.Wrap(err, op)
	}

	if !response.IsSuccess() {
		return domain.LinkRecord{}, "", &ServerError{
			Message:    normalizeMessage(response.Body(), "Failed to shorten URL"),
			StatusCode: response.StatusCode(),
		}
	}

	var wire linkWire

	if err := json.Unmarshal(response.Body(), &wire); err != nil {
		return domain.LinkRecord{}, "", errors.Wrap(err, op)
	}

	record := normalizeLink(wire, identity)
	if record.OwnerRef == "" {
		// The server minted a guest for a first-time visitor.
		record.OwnerRef = wire.GuestID
	}

	return record, wire.GuestID, nil
}

// ListLinks fetches every link owned by the identity.
func (c *Client) ListLinks(ctx context.Context, identity domain.Identity) ([]domain.LinkRecord, error) {
	const op = "list links"

	if identity.IsAnonymous() {
		return nil, nil
	}

	request := c.request(ctx)
	var (
		response *resty.Response
		err      error
	)

	if identity.IsAuthenticated() {
		response, err = request.Get(c.baseURL + listLinksPath)
	} else {
		response, err = request.
			SetBody(guestLoginRequest{GuestID: identity.GuestID}).
			Post(c.baseURL + listLinksPath)
	}

	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	if !response.IsSuccess() {
		return nil, &ServerError{
			Message:    normalizeMessage(response.Body(), "Failed to load URLs"),
			StatusCode: response.StatusCode(),
		}
	}

	records, err := normalizeLinkList(response.Body(), identity)

	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	return records, nil
}

type deleteLinkRequest struct {
	OwnerRef string `json:"ownerRef"`
	URLCode  string `json:"urlCode"`
}

// DeleteLink removes a link by its short code.
func (c *Client) DeleteLink(ctx context.Context, ownerRef, shortCode string) (string, error) {
	const op = "delete link"
	response, err := c.request(ctx).
		SetBody(deleteLinkRequest{OwnerRef: ownerRef, URLCode: shortCode}).
		Post(c.baseURL + deleteLinkPath)

	if err != nil {
		return "", errors.Wrap(err, op)
	}

	if !response.IsSuccess() {
		return "", &ServerError{
			Message:    normalizeMessage(response.Body(), "Failed to delete URL"),
			StatusCode: response.StatusCode(),
		}
	}

	return normalizeMessage(response.Body(), "URL deleted successfully"), nil
}

// Analytics fetches the click analytics payload for a short code.
func (c *Client) Analytics(ctx context.Context, shortCode string) (analytics.Payload, error) {
	const op = "get analytics"
	response, err := c.request(ctx).
		SetPathParam("code", shortCode).
		Get(c.baseURL + analyticsPath)

	if err != nil {
		return analytics.Payload{}, errors.Wrap(err, op)
	}

	if !response.IsSuccess() {
		return analytics.Payload{}, &ServerError{
			Message:    normalizeMessage(response.Body(), "Failed to load analytics"),
			StatusCode: response.StatusCode(),
		}
	}

	var payload analytics.Payload

	if err := json.Unmarshal(response.Body(), &payload); err != nil {
		return analytics.Payload{}, errors.Wrap(err, op)
	}

	return payload, nil
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// ForgotPassword asks the server to mail a reset code.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	return c.postMessage(ctx, forgotPasswordPath, forgotPasswordRequest{Email: email}, "Reset code sent", "Failed to send reset code")
}

// VerifyResetCode checks a reset code before the new password is accepted.
func (c *Client) VerifyResetCode(ctx context.Context, email, code string) (string, error) {
	return c.postMessage(ctx, verifyCodePath, verifyCodeRequest{Email: email, Code: code}, "Code verified", "Invalid or expired code")
}

// ResetPassword sets a new password using a verified reset code.
func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) (string, error) {
	request := resetPasswordRequest{Email: email, Code: code, NewPassword: newPassword}
	return c.postMessage(ctx, resetPasswordPath, request, "Password reset successfully", "Failed to reset password")
}

func (c *Client) postMessage(ctx context.Context, path string, body any, okMsg, failMsg string) (string, error) {
	const op = "post"
	response, err := c.request(ctx).
		SetBody(body).
		Post(c.baseURL + path)

	if err != nil {
		return "", errors.Wrap(err, op)
	}

	if !response.IsSuccess() {
		return "", &ServerError{
			Message:    normalizeMessage(response.Body(), failMsg),
			StatusCode: response.StatusCode(),
		}
	}

	return normalizeMessage(response.Body(), okMsg), nil
}
