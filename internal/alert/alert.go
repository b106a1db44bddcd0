// Package alert is the side channel for failures that happen after control has
// already returned to the caller, most importantly best-effort persistence
// failures. Nothing is ever dropped silently: every alert reaches at least the
// log-backed channel.
package alert

import (
	"context"
	"sync"
	"time"

	"pos_client/pkg/logging"
)

type Level string

const (
	Info     Level = "INFO"
	Warning  Level = "WARNING"
	Error    Level = "ERROR"
	Critical Level = "CRITICAL"
)

type Payload struct {
	Level     Level
	Title     string
	Message   string
	Timestamp time.Time
	Fields    map[string]string
}

// Channel delivers alerts to one destination
type Channel interface {
	Send(ctx context.Context, alert Payload) error
	Name() string
}

// Manager fans alerts out to every registered channel
type Manager struct {
	channels []Channel
	logger   logging.Logger
	mu       sync.RWMutex
}

func NewManager(logger logging.Logger) *Manager {
	return &Manager{
		channels: make([]Channel, 0),
		logger:   logger.WithField("component", "alert_manager"),
	}
}

func (m *Manager) AddChannel(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, ch)
	m.logger.Info("Added alert channel", "name", ch.Name())
}

// Alert delivers asynchronously; the caller is never blocked on a channel.
func (m *Manager) Alert(ctx context.Context, title, message string, level Level, fields map[string]string) {
	payload := Payload{
		Level:     level,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
		Fields:    fields,
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ch := range m.channels {
		go func(c Channel) {
			timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := c.Send(timeoutCtx, payload); err != nil {
				m.logger.Error("Failed to send alert", "channel", c.Name(), "error", err)
			}
		}(ch)
	}
}

// LogChannel writes alerts to the structured log
type LogChannel struct {
	logger logging.Logger
}

func NewLogChannel(logger logging.Logger) *LogChannel {
	return &LogChannel{logger: logger.WithField("component", "alert")}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Send(_ context.Context, alert Payload) error {
	fields := []interface{}{"title", alert.Title, "level", alert.Level}
	for k, v := range alert.Fields {
		fields = append(fields, k, v)
	}
	switch alert.Level {
	case Error, Critical:
		c.logger.Error(alert.Message, fields...)
	case Warning:
		c.logger.Warn(alert.Message, fields...)
	default:
		c.logger.Info(alert.Message, fields...)
	}
	return nil
}

// FuncChannel adapts a plain function into a Channel, used by presentation
// code and tests to observe alerts
type FuncChannel struct {
	ChannelName string
	Fn          func(Payload)
}

func (c *FuncChannel) Name() string {
	if c.ChannelName == "" {
		return "func"
	}
	return c.ChannelName
}

func (c *FuncChannel) Send(_ context.Context, alert Payload) error {
	c.Fn(alert)
	return nil
}
