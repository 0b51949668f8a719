// Package loki provides a client to push telemetry envelopes to Grafana Loki.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Job is the job label on every pushed stream.
const Job = "authcore"

// PushRequest is the Loki push API request body (v1).
type PushRequest struct {
	Streams []Stream `json:"streams"`
}

// Stream is a single stream with labels and log entries.
type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // each entry is [timestamp_ns, log_line]
}

// labelSanitize replaces characters that are invalid in Loki label values.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:.]`)

// envelopeFields is the subset of a telemetry envelope used for labels and timestamp.
type envelopeFields struct {
	Kind       string `json:"kind"`
	PlatformID string `json:"platformId"`
	EventType  string `json:"eventType"`
	Source     string `json:"source"`
	CreatedAt  string `json:"createdAt"`
}

// Client pushes log lines to one Loki instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL (e.g. http://localhost:3100). A nil httpClient uses a 10s timeout client.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("loki: base URL is empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

// PushEnvelopeJSON parses a telemetry envelope (Kafka message value), extracts timestamp and labels, and pushes it.
// If parsing fails, the raw line is pushed with current time and no extra labels.
func (c *Client) PushEnvelopeJSON(ctx context.Context, rawJSON []byte) error {
	labels := map[string]string{}
	ts := time.Now().UTC()
	var fields envelopeFields
	if err := json.Unmarshal(rawJSON, &fields); err == nil {
		setLabel(labels, "kind", fields.Kind)
		setLabel(labels, "platform_id", fields.PlatformID)
		setLabel(labels, "event_type", fields.EventType)
		setLabel(labels, "source", fields.Source)
		if fields.CreatedAt != "" {
			if t, err := time.Parse(time.RFC3339Nano, fields.CreatedAt); err == nil {
				ts = t
			}
		}
	}
	return c.Push(ctx, ts, string(rawJSON), labels)
}

func setLabel(labels map[string]string, k, v string) {
	if v != "" {
		labels[k] = v
	}
}

// Push sends a single log line stamped at timestamp. labels are added to the stream next to job.
// Returns an error if the HTTP request fails or Loki returns non-2xx.
func (c *Client) Push(ctx context.Context, timestamp time.Time, line string, labels map[string]string) error {
	streamLabels := make(map[string]string, len(labels)+1)
	streamLabels["job"] = Job
	for k, v := range labels {
		sanitized := labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_")
		if sanitized != "" {
			streamLabels[k] = sanitized
		}
	}
	body := PushRequest{
		Streams: []Stream{{
			Stream: streamLabels,
			Values: [][]string{{strconv.FormatInt(timestamp.UnixNano(), 10), line}},
		}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/loki/api/v1/push", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}
