// Package webhook posts start page change events to an external URL, for
// example to sync another browser profile or trigger a home automation.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/HerbHall/startpage/internal/background"
	"github.com/HerbHall/startpage/internal/settings"
	"github.com/HerbHall/startpage/internal/version"
	"github.com/HerbHall/startpage/internal/workspace"
	"github.com/HerbHall/startpage/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
	_ plugin.Validator       = (*Module)(nil)
)

// SignatureHeader carries hex(HMAC-SHA256(secret, body)) when a secret is set.
const SignatureHeader = "X-Startpage-Signature"

var deliveries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "startpage_webhook_deliveries_total",
		Help: "Webhook deliveries by outcome (ok, failed, dropped).",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(deliveries)
}

// Config holds the webhook plugin configuration.
type Config struct {
	URL       string        `mapstructure:"url"`
	Secret    string        `mapstructure:"secret"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Topics    []string      `mapstructure:"topics"`
	QueueSize int           `mapstructure:"queue_size"`
}

// DefaultTopics are forwarded when webhook.topics is unset. Configured
// topics may end in "*" to forward every topic with that prefix.
var DefaultTopics = []string{
	settings.TopicChanged,
	workspace.TopicChanged,
	background.TopicChanged,
}

// Module implements the webhook notifier plugin. Deliveries run on a
// single worker so the synchronous event bus never waits on the network.
type Module struct {
	logger *zap.Logger
	cfg    Config
	client *http.Client

	mu      sync.RWMutex // guards running against queue close
	running bool
	queue   chan Payload
	wg      sync.WaitGroup
	stop    context.CancelFunc
}

// New creates a new Webhook plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "webhook",
		Version:     "0.1.0",
		Description: "Posts settings, workspace and background changes to a webhook URL",
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	m.cfg = Config{Timeout: 10 * time.Second, QueueSize: 64}
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("webhook config: %w", err)
		}
	}
	if len(m.cfg.Topics) == 0 {
		m.cfg.Topics = DefaultTopics
	}

	m.client = &http.Client{Timeout: m.cfg.Timeout}

	if m.cfg.URL == "" {
		m.logger.Info("webhook URL not configured; notifications disabled")
		return nil
	}
	m.logger.Info("webhook module initialized",
		zap.String("url", m.cfg.URL),
		zap.Duration("timeout", m.cfg.Timeout),
		zap.Strings("topics", m.cfg.Topics),
		zap.Bool("signed", m.cfg.Secret != ""),
	)
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	if m.cfg.URL == "" {
		return nil
	}
	u, err := url.Parse(m.cfg.URL)
	if err != nil {
		return fmt.Errorf("webhook url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook url %q: scheme must be http or https", m.cfg.URL)
	}
	if m.cfg.Timeout <= 0 {
		return fmt.Errorf("webhook timeout must be positive")
	}
	return nil
}

func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.queue = make(chan Payload, max(m.cfg.QueueSize, 1))
	m.stop = cancel
	m.running = true
	m.mu.Unlock()
	m.wg.Add(1)
	go m.run(ctx, m.queue)
	return nil
}

// Stop drains queued payloads until ctx expires.
func (m *Module) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	close(m.queue)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.stop()
		<-done
	}
	m.stop()
	m.stop = nil
	return nil
}

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	subs := make([]plugin.Subscription, 0, len(m.cfg.Topics))
	for _, topic := range m.cfg.Topics {
		subs = append(subs, plugin.Subscription{Topic: topic, Handler: m.handleEvent})
	}
	return subs
}

// Payload is the JSON body sent to the webhook URL.
type Payload struct {
	Event     string `json:"event"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

func (m *Module) handleEvent(_ context.Context, event plugin.Event) {
	if m.cfg.URL == "" {
		return
	}

	p := Payload{
		Event:     event.Topic,
		Source:    event.Source,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Data:      event.Payload,
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.running {
		return
	}
	select {
	case m.queue <- p:
	default:
		deliveries.WithLabelValues("dropped").Inc()
		m.logger.Warn("webhook queue full, dropping event", zap.String("topic", event.Topic))
	}
}

func (m *Module) run(ctx context.Context, queue <-chan Payload) {
	defer m.wg.Done()
	for p := range queue {
		if err := m.send(ctx, p); err != nil {
			deliveries.WithLabelValues("failed").Inc()
			m.logger.Warn("webhook delivery failed",
				zap.String("url", m.cfg.URL),
				zap.String("topic", p.Event),
				zap.Error(err),
			)
			continue
		}
		deliveries.WithLabelValues("ok").Inc()
	}
}

func (m *Module) send(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Startpage-Webhook/"+version.Short())
	if m.cfg.Secret != "" {
		req.Header.Set(SignatureHeader, Sign([]byte(m.cfg.Secret), body))
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	m.logger.Debug("webhook delivered",
		zap.String("topic", p.Event),
		zap.Int("status_code", resp.StatusCode),
	)
	return nil
}

// Sign returns the hex HMAC-SHA256 of body. Receivers compare it against
// SignatureHeader.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
