package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const oauthStateCookie = "oauth_state"

// googleProfile is the subset of the Google userinfo record used for sign-in.
type googleProfile struct {
	Email     string
	FirstName string
	LastName  string
}

type profileFetcher func(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (googleProfile, error)

// newGoogleOAuthConfig returns nil when no client id is configured.
func newGoogleOAuthConfig(cfg Config) *oauth2.Config {
	if cfg.GoogleClientID == "" {
		return nil
	}
	redirect := cfg.GoogleRedirectURL
	if redirect == "" {
		redirect = "http://localhost:" + cfg.Port + "/auth/callback/google"
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  redirect,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

func fetchGoogleProfile(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (googleProfile, error) {
	svc, err := googleoauth.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx, tok)))
	if err != nil {
		return googleProfile{}, fmt.Errorf("userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return googleProfile{}, fmt.Errorf("userinfo: %w", err)
	}
	return googleProfile{Email: info.Email, FirstName: info.GivenName, LastName: info.FamilyName}, nil
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *server) googleLoginHandler(c *gin.Context) {
	if s.oauth == nil {
		abortDetail(c, http.StatusServiceUnavailable, "Google sign-in is not configured.")
		return
	}
	state, err := randomState()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/", "", s.cfg.IsProduction(), true)
	c.Redirect(http.StatusTemporaryRedirect, s.oauth.AuthCodeURL(state))
}

// googleCallbackHandler finishes the code exchange, creates the account on first sign-in
// and hands the access token to the frontend.
func (s *server) googleCallbackHandler(c *gin.Context) {
	if s.oauth == nil {
		abortDetail(c, http.StatusServiceUnavailable, "Google sign-in is not configured.")
		return
	}
	state, _ := c.Cookie(oauthStateCookie)
	if state == "" || c.Query("state") != state {
		abortDetail(c, http.StatusUnauthorized, "Could not authorize Google account.")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", s.cfg.IsProduction(), true)

	ctx := c.Request.Context()
	tok, err := s.oauth.Exchange(ctx, c.Query("code"))
	if err != nil {
		s.log.Warn("google code exchange failed", "error", err)
		abortDetail(c, http.StatusUnauthorized, "Could not authorize Google account.")
		return
	}
	profile, err := s.googleProfile(ctx, s.oauth, tok)
	if err != nil || profile.Email == "" {
		s.log.Warn("google userinfo failed", "error", err)
		abortDetail(c, http.StatusBadRequest, "Could not retrieve user info from Google.")
		return
	}
	user, err := s.auth.UpsertOAuthUser(profile.Email, profile.FirstName, profile.LastName)
	if err != nil {
		s.respondError(c, err)
		return
	}
	accessToken, err := s.auth.IssueToken(user.Email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.log.Info("google sign-in", "user_id", user.ID)
	c.Redirect(http.StatusTemporaryRedirect, s.cfg.FrontendURL+"/auth/callback?token="+url.QueryEscape(accessToken))
}
