package oidc

// Package oidc provides the federated login adapter. Claim-to-username
// mapping is configurable through JMESPath expressions so the gateway can
// front providers with different claim shapes without code changes.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
	"github.com/curbmap/curbmap-api/internal/ports"
)

// Provider implements ports.FederatedProvider using OIDC/OAuth2.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier

	// Claim-mapping expressions, validated at construction.
	usernameExpr string
	groupsExpr   string
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string

	// UsernameClaim and GroupsClaim are JMESPath expressions evaluated
	// against the raw claims (id_token first, then userinfo).
	UsernameClaim string
	GroupsClaim   string

	HTTPClient *http.Client // Optional, defaults to a 30s-timeout client
}

// NewProvider creates a new OIDC provider from a discovery URL.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	usernameExpr := defaultExpr(config.UsernameClaim, "preferred_username")
	if _, err := jmespath.Compile(usernameExpr); err != nil {
		return nil, fmt.Errorf("compile username claim expression: %w", err)
	}
	groupsExpr := defaultExpr(config.GroupsClaim, "groups")
	if _, err := jmespath.Compile(groupsExpr); err != nil {
		return nil, fmt.Errorf("compile groups claim expression: %w", err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{
		httpClient:   httpClient,
		usernameExpr: usernameExpr,
		groupsExpr:   groupsExpr,
	}

	// Initialize go-oidc provider and verifier (single discovery fetch)
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       strings.Fields(config.Scope),
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

func (p *Provider) Begin(_ context.Context) (string, string, string, error) {
	// Generate cryptographically secure state and nonce
	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}

	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
	)

	return authURL, state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Identity{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.claimsFromIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, err
	}

	identity := p.mapClaims(claims)

	// Fill missing fields from the userinfo endpoint.
	if identity.Username == "" || identity.Email == "" {
		uiClaims, uiErr := p.userInfoClaims(ctx, token.AccessToken)
		if uiErr != nil {
			return domainauth.Identity{}, uiErr
		}
		fill := p.mapClaims(uiClaims)
		if identity.Username == "" {
			identity.Username = fill.Username
		}
		if identity.Email == "" {
			identity.Email = fill.Email
		}
		if len(identity.Groups) == 0 {
			identity.Groups = fill.Groups
		}
	}

	if identity.Username == "" {
		return domainauth.Identity{}, errors.New("provider claims produced no username")
	}

	return identity, nil
}

// claimsFromIDToken verifies the id_token and returns its raw claims.
func (p *Provider) claimsFromIDToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (map[string]any, error) {
	rawID, ok := tok.Extra("id_token").(string)
	if !ok || rawID == "" {
		return nil, errors.New("missing id_token in token response")
	}

	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	if expectedNonce != "" && idTok.Nonce != expectedNonce {
		return nil, errors.New("invalid nonce")
	}

	var claims map[string]any
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	return claims, nil
}

func (p *Provider) userInfoClaims(ctx context.Context, accessToken string) (map[string]any, error) {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	var claims map[string]any
	if claimsErr := ui.Claims(&claims); claimsErr != nil {
		return nil, fmt.Errorf("decode user info: %w", claimsErr)
	}
	return claims, nil
}

// mapClaims evaluates the configured JMESPath expressions against raw claims.
func (p *Provider) mapClaims(claims map[string]any) domainauth.Identity {
	var identity domainauth.Identity
	identity.Username = searchString(p.usernameExpr, claims)
	identity.Groups = searchStrings(p.groupsExpr, claims)
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	return identity
}

func searchString(expr string, claims map[string]any) string {
	v, err := jmespath.Search(expr, claims)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func searchStrings(expr string, claims map[string]any) []string {
	v, err := jmespath.Search(expr, claims)
	if err != nil || v == nil {
		return nil
	}
	switch vals := v.(type) {
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return vals
	case string:
		return []string{vals}
	default:
		return nil
	}
}

func defaultExpr(expr, fallback string) string {
	if strings.TrimSpace(expr) == "" {
		return fallback
	}
	return expr
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	// Compute number of random bytes needed to produce at least 'length' base64 URL-safe chars
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}
