package status

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
	prom "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/voluzi/pmon/pkg/record"
)

var ErrNoRecord = errors.New("no record archived yet")

var httpClient = &http.Client{
	Timeout: 10 * time.Second,
}

// Client talks to the status server of a running recorder.
type Client struct {
	url string
}

// NewClient accepts host:port or a full http URL.
func NewClient(addr string) *Client {
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return &Client{url: strings.TrimSuffix(addr, "/")}
}

func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+endpoint, nil)
	if err != nil {
		return nil, err
	}
	return httpClient.Do(req)
}

func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

// LastRecord returns ErrNoRecord when the recorder has not archived anything.
func (c *Client) LastRecord(ctx context.Context) (*record.Record, error) {
	resp, err := c.get(ctx, "/last_record")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNoRecord
	default:
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rec record.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, errors.Wrap(err, "decoding record")
	}
	return &rec, nil
}

func (c *Client) Metrics(ctx context.Context) (map[string]*prom.MetricFamily, error) {
	resp, err := c.get(ctx, "/metrics")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	parser := expfmt.TextParser{}
	return parser.TextToMetricFamilies(resp.Body)
}
