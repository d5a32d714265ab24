package watson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultIAMURL = "https://iam.cloud.ibm.com/identity/token"

	apiKeyGrantType = "urn:ibm:params:oauth:grant-type:apikey"
	// refresh a little before IBM says the token expires
	expiryMargin = time.Minute
)

// iamTokenSource exchanges an IBM Cloud API key for a bearer token
type iamTokenSource struct {
	apiKey string
	url    string
	client *http.Client
}

type iamTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Expiration   int64  `json:"expiration"`
	ErrorMessage string `json:"errorMessage"`
}

// NewTokenSource returns a cached IAM token source for apiKey.
// Tokens are refreshed when they are about to expire.
func NewTokenSource(apiKey, iamURL string, client *http.Client) oauth2.TokenSource {
	if iamURL == "" {
		iamURL = DefaultIAMURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return oauth2.ReuseTokenSource(nil, &iamTokenSource{
		apiKey: apiKey,
		url:    iamURL,
		client: client,
	})
}

// NewHTTPClient returns an HTTP client that authorises every request with ts
func NewHTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	return oauth2.NewClient(ctx, ts)
}

// Token implements oauth2.TokenSource
func (s *iamTokenSource) Token() (*oauth2.Token, error) {
	form := url.Values{
		"grant_type": {apiKeyGrantType},
		"apikey":     {s.apiKey},
	}
	req, err := http.NewRequest(http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("iam token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("iam token response: %w", err)
	}

	var tr iamTokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("iam returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode >= 400 || tr.AccessToken == "" {
		msg := tr.ErrorMessage
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("iam returned status %d: %s", resp.StatusCode, msg)
	}

	token := &oauth2.Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    "Bearer",
	}
	switch {
	case tr.Expiration > 0:
		token.Expiry = time.Unix(tr.Expiration, 0).Add(-expiryMargin)
	case tr.ExpiresIn > 0:
		token.Expiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - expiryMargin)
	}
	return token, nil
}
