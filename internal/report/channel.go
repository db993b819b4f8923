package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nvali/chronotap/internal/config"
)

// Channel delivers a rendered report somewhere.
type Channel interface {
	Send(r Report) error
}

// NewChannel returns the channel for the configured report settings.
func NewChannel(cfg config.ReportChannel, out io.Writer) (Channel, error) {
	switch cfg.Kind {
	case "", "stdout":
		return &writerChannel{out: out}, nil
	case "webhook":
		if cfg.Target == "" {
			return nil, fmt.Errorf("webhook report channel requires a target URL")
		}
		return &webhookChannel{url: cfg.Target, client: &http.Client{Timeout: 10 * time.Second}}, nil
	default:
		return nil, fmt.Errorf("unknown report channel kind %q", cfg.Kind)
	}
}

// writerChannel prints the report as indented JSON.
type writerChannel struct {
	out io.Writer
}

func (c *writerChannel) Send(r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

// webhookChannel POSTs the report as JSON to a URL.
type webhookChannel struct {
	url    string
	client *http.Client
}

func (c *webhookChannel) Send(r Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	resp, err := c.client.Post(c.url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("sending report: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("report webhook returned %s", resp.Status)
	}
	return nil
}
