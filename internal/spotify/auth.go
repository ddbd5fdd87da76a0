package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/rmattila/trackwise/internal/conf"
)

// state is a fixed OAuth state value. The callback listener only lives for
// one local authorization round trip.
const authState = "trackwise-auth"

var scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeImageUpload,
}

// Authenticate builds an authenticated streaming-API client. A cached
// token from a previous run is reused when present; otherwise an
// interactive browser authorization is performed and the token persisted
// for subsequent runs.
func Authenticate(ctx context.Context, settings *conf.SpotifySettings) (Client, error) {
	if settings.ClientID == "" || settings.ClientSecret == "" {
		return nil, fmt.Errorf("spotify client id and secret are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(settings.ClientID),
		spotifyauth.WithClientSecret(settings.ClientSecret),
		spotifyauth.WithRedirectURL(settings.RedirectURI),
		spotifyauth.WithScopes(scopes...),
	)

	token, err := loadToken(settings.TokenFile)
	if err != nil {
		return nil, err
	}
	if token == nil {
		token, err = interactiveAuth(ctx, auth, settings.RedirectURI)
		if err != nil {
			return nil, fmt.Errorf("interactive authorization failed: %w", err)
		}
		if err := saveToken(settings.TokenFile, token); err != nil {
			return nil, err
		}
	}

	// auth.Client refreshes the access token transparently; the refresh
	// token in the cache file stays valid across runs.
	httpClient := auth.Client(ctx, token)
	return NewClient(spotifyapi.New(httpClient), httpClient), nil
}

// interactiveAuth runs a one-shot callback listener on the redirect URI,
// prints the authorization URL and waits for the provider to call back.
func interactiveAuth(ctx context.Context, auth *spotifyauth.Authenticator, redirectURI string) (*oauth2.Token, error) {
	redirect, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %s: %w", redirectURI, err)
	}

	type result struct {
		token *oauth2.Token
		err   error
	}
	results := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.Token(r.Context(), authState, r)
		if err != nil {
			http.Error(w, "authorization failed", http.StatusForbidden)
			results <- result{nil, err}
			return
		}
		fmt.Fprintln(w, "Authorization complete, you can close this window.")
		results <- result{token, nil}
	})

	server := &http.Server{Addr: redirect.Host, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			results <- result{nil, err}
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	fmt.Println("Please log in to Spotify by visiting this URL in your browser:")
	fmt.Println(auth.AuthURL(authState))

	select {
	case res := <-results:
		return res.token, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// loadToken reads a cached token; a missing file is not an error.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file %s: %w", path, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parsing token file %s: %w", path, err)
	}
	return &token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing token file %s: %w", path, err)
	}
	return nil
}
