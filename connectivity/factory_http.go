package connectivity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// maxHTTPResponseBody caps the response read from a remote peer.
const maxHTTPResponseBody int64 = 4 << 20

type httpConfig struct {
	TimeoutMs   int64  `json:"timeout_ms"`
	ContentType string `json:"content_type"`
	Token       string `json:"token"`
	TokenEnv    string `json:"token_env"`
}

// HTTPFactory builds handlers that POST the payload to the route endpoint,
// typically the /rpc/{service} surface of a peer running autofill -serve.
// Route config accepts timeout_ms (default 2m, a fill includes its pauses),
// content_type (default application/json), and a bearer token for a peer
// that sets http.token_hash: token, or token_env naming the environment
// variable that holds it. token_env keeps the secret out of the routes DB.
//
//	router.RegisterTransport("http", connectivity.HTTPFactory())
func HTTPFactory() TransportFactory {
	return func(endpoint string, config json.RawMessage) (Handler, func(), error) {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("connectivity/http: endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
			return nil, nil, fmt.Errorf("connectivity/http: endpoint %q: want an absolute http(s) URL", endpoint)
		}

		var cfg httpConfig
		if len(config) > 0 {
			_ = json.Unmarshal(config, &cfg)
		}
		timeout := 2 * time.Minute
		if cfg.TimeoutMs > 0 {
			timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
		}
		contentType := "application/json"
		if cfg.ContentType != "" {
			contentType = cfg.ContentType
		}
		token := cfg.Token
		if token == "" && cfg.TokenEnv != "" {
			token = os.Getenv(cfg.TokenEnv)
		}

		client := &http.Client{Timeout: timeout}
		handler := func(ctx context.Context, payload []byte) ([]byte, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
			if err != nil {
				return nil, fmt.Errorf("connectivity/http: create request: %w", err)
			}
			req.Header.Set("Content-Type", contentType)
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("connectivity/http: do request: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxHTTPResponseBody+1))
			if err != nil {
				return nil, fmt.Errorf("connectivity/http: read response: %w", err)
			}
			if int64(len(body)) > maxHTTPResponseBody {
				return nil, fmt.Errorf("connectivity/http: response exceeds %d bytes", maxHTTPResponseBody)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, fmt.Errorf("connectivity/http: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
			}
			return body, nil
		}
		return handler, client.CloseIdleConnections, nil
	}
}
