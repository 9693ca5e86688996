// Package walletclient is the HTTP client for the wallet provider's own
// wallet-service and issuance-service APIs: nonce issuance, attestation-based
// login, and issuance-session polling. It never talks to a credential
// issuer or verifier directly; those flows go through pkg/oid4vci and
// pkg/oid4vp.
package walletclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/eudiwallet/core/pkg/helpers"
	"github.com/eudiwallet/core/pkg/logger"
)

// Client is the wallet-service HTTP client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Log

	token *TokenInfo
}

// Config is the configuration for the client.
type Config struct {
	URL string `validate:"required"`
}

// New creates a new wallet-service client.
func New(config *Config) (*Client, error) {
	if err := helpers.CheckSimple(config); err != nil {
		return nil, err
	}

	log, err := logger.New("walletClient", "", false)
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: &http.Transport{TLSClientConfig: standardTLSConfig()},
		},
		baseURL: config.URL,
		log:     log,
		token:   newTokenInfo(),
	}, nil
}

// ServerError is returned for any non-2xx wallet-service response.
type ServerError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("walletclient: server returned %d: %s", e.Status, e.Message)
}

func (c *Client) newRequest(ctx context.Context, method, path string, header http.Header, body any) (*http.Request, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	target := base.ResolveReference(rel)
	c.log.Debug("request", "url", target.String())

	var buf io.Reader
	if body != nil {
		b := new(bytes.Buffer)
		if err := json.NewEncoder(b).Encode(body); err != nil {
			c.log.Error(err, "failed to encode body")
			return nil, err
		}
		buf = b
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return req, nil
}

// do issues the request and, for a 2xx response, decodes the body as JSON
// into reply (if non-nil). Any other status surfaces as a *ServerError.
func (c *Client) do(req *http.Request, reply any) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &ServerError{Status: resp.StatusCode, Message: string(body)}
	}

	if reply == nil {
		return resp, nil
	}

	if err := json.Unmarshal(body, reply); err != nil {
		c.log.Error(err, "failed to decode response")
		return resp, err
	}
	return resp, nil
}

// doText is do's counterpart for a plain-text reply, such as GET /nonce.
func (c *Client) doText(req *http.Request) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ServerError{Status: resp.StatusCode, Message: string(body)}
	}
	return string(body), nil
}

// Nonce fetches a fresh nonce from GET /nonce.
func (c *Client) Nonce(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "nonce", nil, nil)
	if err != nil {
		return "", err
	}
	return c.doText(req)
}

// Login exchanges an app attestation for a wallet JWT via POST /login, and
// atomically replaces the client's stored TokenInfo on success.
func (c *Client) Login(ctx context.Context, attestation any) error {
	req, err := c.newRequest(ctx, http.MethodPost, "login", nil, attestation)
	if err != nil {
		return err
	}

	var jwt string
	if _, err := c.do(req, &jwt); err != nil {
		return err
	}

	info, err := parseTokenInfo(jwt)
	if err != nil {
		return err
	}
	c.token.set(jwt, info)
	return nil
}

// Token returns the client's TokenInfo slot. IsTokenValid reports false on
// it until the first successful Login.
func (c *Client) Token() *TokenInfo {
	return c.token
}

// NewIssuance starts an issuance session via GET /issuance/new, authenticated
// with the client's stored login JWT as an OAuth-Client-Attestation header.
func (c *Client) NewIssuance(ctx context.Context) (string, error) {
	header, err := c.issuanceAuthHeader()
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodGet, "issuance/new", header, nil)
	if err != nil {
		return "", err
	}

	var reply struct {
		ID string `json:"id"`
	}
	if _, err := c.do(req, &reply); err != nil {
		return "", err
	}
	return reply.ID, nil
}

// IssuanceStatus is the GET /issuance/{id}/status response.
type IssuanceStatus struct {
	State                 string `json:"state"`
	OpenIDCredentialOffer string `json:"openid_credential_offer"`
}

// IssuanceStatus polls the state of a previously started issuance session.
func (c *Client) IssuanceStatus(ctx context.Context, id string) (*IssuanceStatus, error) {
	header, err := c.issuanceAuthHeader()
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("issuance/%s/status", id), header, nil)
	if err != nil {
		return nil, err
	}

	var status IssuanceStatus
	if _, err := c.do(req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// issuanceAuthHeader builds the OAuth-Client-Attestation header the issuance
// service expects, using the client's stored login JWT.
func (c *Client) issuanceAuthHeader() (http.Header, error) {
	jwt, err := c.token.jwt()
	if err != nil {
		return nil, err
	}
	return http.Header{"OAuth-Client-Attestation": []string{jwt}}, nil
}
