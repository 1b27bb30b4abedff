// Package credential resolves bearer tokens for Azure OpenAI calls.
//
// Callers depend on Provider so tests can hand in a Static token instead of
// reaching the Azure credential chains.
package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// CognitiveServicesScope is the token scope for Azure OpenAI.
const CognitiveServicesScope = "https://cognitiveservices.azure.com/.default"

// Provider returns a bearer token for outgoing requests.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f ProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static is a fixed token.
type Static string

// Token returns the fixed token.
func (s Static) Token(context.Context) (string, error) {
	if s == "" {
		return "", errors.New("empty static token")
	}
	return string(s), nil
}

// TokenCredential wraps an azcore credential scoped to the given scopes.
type TokenCredential struct {
	cred   azcore.TokenCredential
	scopes []string
}

// FromTokenCredential builds a Provider from an azcore credential. Without
// scopes it requests CognitiveServicesScope.
func FromTokenCredential(cred azcore.TokenCredential, scopes ...string) *TokenCredential {
	if len(scopes) == 0 {
		scopes = []string{CognitiveServicesScope}
	}
	return &TokenCredential{cred: cred, scopes: scopes}
}

// Token requests an access token from the wrapped credential.
func (c *TokenCredential) Token(ctx context.Context) (string, error) {
	tok, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: c.scopes})
	if err != nil {
		return "", fmt.Errorf("failed to acquire token: %w", err)
	}
	return tok.Token, nil
}

// NewDefault returns a Provider backed by the default Azure credential chain
// (environment, workload identity, managed identity, Azure CLI, ...).
func NewDefault() (Provider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create default azure credential: %w", err)
	}
	return FromTokenCredential(cred), nil
}

// NewCLI returns a Provider backed by the signed-in Azure CLI account.
func NewCLI() (Provider, error) {
	cred, err := azidentity.NewAzureCLICredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure cli credential: %w", err)
	}
	return FromTokenCredential(cred), nil
}

// Transport sets an Authorization bearer header on every request, fetching the
// token from Provider each time.
type Transport struct {
	Provider Provider
	Base     http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Provider.Token(req.Context())
	if err != nil {
		return nil, err
	}

	// RoundTrippers must not modify the caller's request.
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+token)
	out.Header.Del("api-key")

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(out)
}

// NewHTTPClient returns an http.Client authenticating through p.
func NewHTTPClient(p Provider) *http.Client {
	return &http.Client{Transport: &Transport{Provider: p}}
}
