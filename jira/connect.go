package jira

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// connectTokenTTL is the lifetime of a Connect request token.
const connectTokenTTL = 3 * time.Minute

// ConnectSigner signs requests for an Atlassian Connect app installation.
// Each request gets its own short-lived HS256 JWT whose qsh claim binds the
// token to the method, path and query of that request.
type ConnectSigner struct {
	AppKey       string
	SharedSecret string
	BaseURL      string

	now func() time.Time
}

// NewConnectSigner creates a signer for the app installed at baseURL.
func NewConnectSigner(appKey, sharedSecret, baseURL string) *ConnectSigner {
	return &ConnectSigner{
		AppKey:       appKey,
		SharedSecret: sharedSecret,
		BaseURL:      strings.TrimSuffix(baseURL, "/"),
		now:          time.Now,
	}
}

// Sign sets the Authorization header of req.
func (s *ConnectSigner) Sign(req *http.Request) error {
	token, err := s.Token(req.Method, req.URL)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "JWT "+token)
	return nil
}

// Token returns a signed JWT for one request.
func (s *ConnectSigner) Token(method string, u *url.URL) (string, error) {
	jti, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}
	now := s.now()
	claims := jwt.MapClaims{
		"iss": s.AppKey,
		"iat": now.Unix(),
		"exp": now.Add(connectTokenTTL).Unix(),
		"qsh": QueryStringHash(method, u, s.basePath()),
		"jti": jti,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.SharedSecret))
	if err != nil {
		return "", fmt.Errorf("sign connect token: %w", err)
	}
	return signed, nil
}

func (s *ConnectSigner) basePath() string {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u.Path, "/")
}

// QueryStringHash computes the Connect qsh claim: the hex SHA-256 of
// "METHOD&path&query" where path is relative to basePath and query is the
// sorted, percent-encoded parameter list without the jwt parameter.
func QueryStringHash(method string, u *url.URL, basePath string) string {
	path := strings.TrimPrefix(u.EscapedPath(), basePath)
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}

	query := u.Query()
	keys := make([]string, 0, len(query))
	for k := range query {
		if k != "jwt" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		values := slices.Clone(query[k])
		slices.Sort(values)
		for i, v := range values {
			values[i] = connectEscape(v)
		}
		parts = append(parts, connectEscape(k)+"="+strings.Join(values, ","))
	}

	canonical := strings.ToUpper(method) + "&" + path + "&" + strings.Join(parts, "&")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// connectEscape is RFC 3986 percent-encoding: spaces become %20, not +.
func connectEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
