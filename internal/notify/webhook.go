package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickspencer/cronhive/pkg/plugin"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookNotifier POSTs each event as JSON to a URL.
type WebhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
}

func (*WebhookNotifier) Name() string { return "webhook" }

// Init reads url (required), timeout (duration string) and headers.
func (w *WebhookNotifier) Init(cfg map[string]any) error {
	url, _ := cfg["url"].(string)
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("webhook url is required")
	}
	w.url = url

	timeout := defaultWebhookTimeout
	if raw, ok := cfg["timeout"].(string); ok && raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("webhook timeout: %w", err)
		}
		timeout = d
	}
	w.client = &http.Client{Timeout: timeout}

	w.headers = map[string]string{}
	if hs, ok := cfg["headers"].(map[string]any); ok {
		for k, v := range hs {
			w.headers[k] = fmt.Sprint(v)
		}
	}
	return nil
}

func (w *WebhookNotifier) Close() error {
	if w.client != nil {
		w.client.CloseIdleConnections()
	}
	return nil
}

// Notify implements plugin.Notifier.
func (w *WebhookNotifier) Notify(ctx context.Context, e plugin.DeadJobEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
