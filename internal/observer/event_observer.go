package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// StageEvent records one pipeline stage transition. ChipIndex is set
// only on failure events caused by a single chip.
type StageEvent struct {
	EventType EventType     `json:"event_type"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	ChipCount int           `json:"chip_count,omitempty"`
	ChipIndex *int          `json:"chip_index,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	// StageNormalized when the raster has been rescaled to 8-bit RGB
	StageNormalized EventType = "normalized"
	// StageTiled when the image has been split into chips
	StageTiled EventType = "tiled"
	// StageDetected when every chip's detector call has returned
	StageDetected EventType = "detected"
	// StageAggregated when mapping and suppression are complete
	StageAggregated EventType = "aggregated"
	// PipelineFailed when any stage aborts the run
	PipelineFailed EventType = "pipeline_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event StageEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event StageEvent)
}

// LoggingObserver logs pipeline stage events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles stage events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event StageEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"duration":   event.Duration,
		"success":    event.Success,
	}
	if event.ChipCount > 0 {
		fields["chip_count"] = event.ChipCount
	}
	if event.ChipIndex != nil {
		fields["chip_index"] = *event.ChipIndex
	}
	if event.Error != "" {
		fields["error"] = event.Error
	}

	if event.Success {
		o.logger.WithFields(fields).Info("pipeline stage completed")
	} else {
		o.logger.WithFields(fields).Error("pipeline stage failed")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher manages observers and publishes events
type EventPublisher struct {
	observers []Observer
	mu        sync.RWMutex
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, o := range p.observers {
		if o.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			return
		}
	}
}

// NotifyObservers publishes an event to all observers
func (p *EventPublisher) NotifyObservers(ctx context.Context, event StageEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, o := range observers {
		o.OnEvent(ctx, event)
	}
}
