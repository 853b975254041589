package qc

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/xelth-com/cotaqc/internal/storage"
)

// Live event names pushed to connected clients.
const (
	EventDrawingChanged     = "drawing.changed"
	EventWorkOrderCreated   = "work_order.created"
	EventSamplesGenerated   = "work_order.samples"
	EventMeasurementSaved   = "measurement.saved"
	EventMeasurementDeleted = "measurement.deleted"
	EventWorkOrderCompleted = "work_order.completed"
)

// Publisher fans events out to live clients. Delivery is best effort.
type Publisher interface {
	Publish(event string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// Service implements the manager and operator use cases on top of a Store.
type Service struct {
	store    Store
	blobs    storage.BlobStore
	events   Publisher
	validate *validator.Validate
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher sets the live event sink.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

func NewService(store Store, blobs storage.BlobStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		blobs:    blobs,
		events:   nopPublisher{},
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// check runs struct validation and reports the first failing field.
func (s *Service) check(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return invalid(lowerFirst(fe.Field()), fe.Tag())
	}
	return invalid("", err.Error())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
