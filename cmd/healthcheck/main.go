// Command healthcheck queries the panel's health endpoint from inside the
// container. It exits non-zero unless the panel reports status "ok".
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/tidwall/gjson"
)

const defaultAddr = "127.0.0.1:8080"

func main() {
	addr := normalizeAddr(os.Getenv("SMARTQ_LISTEN_ADDR"))
	if err := checkHealth(context.Background(), &http.Client{Timeout: 2 * time.Second}, "http://"+addr); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}
}

// checkHealth fetches /api/v1/health under baseURL and checks the reported status.
func checkHealth(ctx context.Context, client *http.Client, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/health", nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("status %d: response is not JSON", resp.StatusCode)
	}

	status := gjson.GetBytes(body, "status").String()
	if resp.StatusCode != http.StatusOK || status != "ok" {
		db := gjson.GetBytes(body, "database").String()
		return fmt.Errorf("status %d: panel %q, database %q", resp.StatusCode, status, db)
	}
	return nil
}

// normalizeAddr points the check at loopback when the panel binds every
// interface, since the check runs in the same container.
func normalizeAddr(raw string) string {
	if raw == "" {
		return defaultAddr
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultAddr
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
