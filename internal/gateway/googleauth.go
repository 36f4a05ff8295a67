package gateway

import (
	"net/http"

	"golang.org/x/oauth2"
)

// googleProvider is the credentials row key for the linked account.
const googleProvider = "google"

// handleGoogleStart redirects the browser into Google's consent flow.
// "prompt=consent" forces a refresh token to be issued even if the account
// was linked before.
func (s *Server) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if s.oauth == nil {
		writeError(w, http.StatusServiceUnavailable, "google oauth not configured")
		return
	}

	url := s.oauth.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	http.Redirect(w, r, url, http.StatusFound)
}

// handleGoogleCallback exchanges the authorization code and stores the
// refresh token, completing the calendar link.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauth == nil || s.creds == nil {
		writeError(w, http.StatusServiceUnavailable, "google oauth not configured")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := s.oauth.Exchange(r.Context(), code)
	if err != nil {
		s.log.Error().Err(err).Msg("oauth code exchange failed")
		writeError(w, http.StatusBadGateway, "code exchange failed")
		return
	}
	if token.RefreshToken == "" {
		writeError(w, http.StatusBadGateway, "no refresh token returned, re-link with consent")
		return
	}

	if err := s.creds.SaveRefreshToken(googleProvider, token.RefreshToken); err != nil {
		s.log.Error().Err(err).Msg("failed to store refresh token")
		writeError(w, http.StatusInternalServerError, "failed to store credential")
		return
	}

	s.log.Info().Msg("google calendar linked")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Google Calendarを連携しました。このタブは閉じて構いません。"))
}
