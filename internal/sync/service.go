// internal/sync/service.go
package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"intentcfg/internal/cache"
	"intentcfg/internal/runtime"

	"go.uber.org/zap"
)

// Outcome of a single-scope sync.
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

const listenerTimeout = 5 * time.Second

// Source resolves the authoritative runtime config for a scope.
// Satisfied by runtime.Resolver.
type Source interface {
	Resolve(scope runtime.Scope) (*runtime.Config, error)
}

// Event describes a config change delivered to listeners.
type Event struct {
	NewConfig *runtime.Config
	OldConfig *runtime.Config // nil on first sync for a scope
	ChangedAt time.Time
}

// Listener receives change events. Panics are isolated per listener and
// a listener exceeding the dispatch timeout is abandoned with a log.
type Listener func(ctx context.Context, event Event)

// BatchResult reports per-scope outcomes of a batch sync. Failures are
// collected, never raised for the remaining scopes.
type BatchResult struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// Service keeps the cache tiers coherent with the snapshot store and
// fans out change notifications.
type Service struct {
	source Source
	cache  cache.ConfigCache
	logger *zap.Logger

	mu        sync.Mutex
	listeners map[string]Listener
	scopes    map[string]runtime.Scope

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewService starts the notification dispatcher. scopes seeds the set
// used by SyncAll; scopes observed later via SyncConfig are added to it.
func NewService(source Source, configCache cache.ConfigCache, scopes []runtime.Scope, logger *zap.Logger) *Service {
	s := &Service{
		source:    source,
		cache:     configCache,
		logger:    logger,
		listeners: make(map[string]Listener),
		scopes:    make(map[string]runtime.Scope),
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
	}
	for _, scope := range scopes {
		s.scopes[scope.Key()] = scope
	}

	s.wg.Add(1)
	go s.dispatch()

	return s
}

// Close stops the dispatcher after draining queued events.
func (s *Service) Close() {
	close(s.done)
	s.wg.Wait()
}

// SyncConfig pulls the latest config for scope, short-circuits when the
// etag matches what is cached, otherwise writes through the cache tiers
// and notifies listeners.
func (s *Service) SyncConfig(ctx context.Context, scope runtime.Scope) (Outcome, error) {
	s.trackScope(scope)

	latest, err := s.source.Resolve(scope)
	if err != nil {
		return "", fmt.Errorf("resolving config for %s: %w", scope.Key(), err)
	}

	cached, ok := s.cache.Get(ctx, scope)
	if ok && cached.Etag == latest.Etag {
		s.logger.Debug("config unchanged, skipping sync",
			zap.String("scope", scope.Key()),
			zap.String("etag", latest.Etag),
		)
		return OutcomeUnchanged, nil
	}

	if err := s.cache.Put(ctx, latest); err != nil {
		// Cache failures degrade, they never fail the sync.
		s.logger.Warn("cache write failed during sync",
			zap.String("scope", scope.Key()),
			zap.Error(err),
		)
	}

	s.publish(Event{NewConfig: latest, OldConfig: cached, ChangedAt: time.Now()})

	s.logger.Info("config synced",
		zap.String("scope", scope.Key()),
		zap.String("etag", latest.Etag),
	)
	return OutcomeUpdated, nil
}

// BatchSync syncs every scope, collecting failures instead of aborting.
func (s *Service) BatchSync(ctx context.Context, scopes []runtime.Scope) BatchResult {
	result := BatchResult{Total: len(scopes)}

	for _, scope := range scopes {
		if _, err := s.SyncConfig(ctx, scope); err != nil {
			s.logger.Error("scope sync failed",
				zap.String("scope", scope.Key()),
				zap.Error(err),
			)
			if result.Errors == nil {
				result.Errors = make(map[string]string)
			}
			result.Errors[scope.Key()] = err.Error()
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	s.logger.Info("batch sync completed",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result
}

// SyncAll evicts both cache tiers and re-syncs every known scope cold.
// Called after a publish or rollback, when every scope's resolved view
// may have changed.
func (s *Service) SyncAll(ctx context.Context) BatchResult {
	if err := s.cache.EvictAll(ctx); err != nil {
		s.logger.Warn("cache evict-all failed", zap.Error(err))
	}
	return s.BatchSync(ctx, s.knownScopes())
}

// AddListener registers a named change listener; re-registering a name
// replaces it.
func (s *Service) AddListener(name string, l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.listeners[name] = l
	s.mu.Unlock()
	s.logger.Info("config change listener registered", zap.String("listener", name))
}

func (s *Service) RemoveListener(name string) {
	s.mu.Lock()
	delete(s.listeners, name)
	s.mu.Unlock()
	s.logger.Info("config change listener removed", zap.String("listener", name))
}

func (s *Service) trackScope(scope runtime.Scope) {
	s.mu.Lock()
	s.scopes[scope.Key()] = scope
	s.mu.Unlock()
}

func (s *Service) knownScopes() []runtime.Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.scopes))
	for key := range s.scopes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	scopes := make([]runtime.Scope, 0, len(keys))
	for _, key := range keys {
		scopes = append(scopes, s.scopes[key])
	}
	return scopes
}

// publish queues an event without ever blocking the sync caller. A full
// queue drops the event; listeners resync on the next change.
func (s *Service) publish(event Event) {
	select {
	case s.events <- event:
	default:
		s.logger.Warn("notification queue full, dropping event",
			zap.String("etag", event.NewConfig.Etag),
		)
	}
}

func (s *Service) dispatch() {
	defer s.wg.Done()

	for {
		select {
		case event := <-s.events:
			s.notify(event)
		case <-s.done:
			// Drain what is already queued.
			for {
				select {
				case event := <-s.events:
					s.notify(event)
				default:
					return
				}
			}
		}
	}
}

// notify calls every listener with per-listener panic isolation and a
// bounded timeout, so one faulty subscriber cannot block propagation.
func (s *Service) notify(event Event) {
	s.mu.Lock()
	listeners := make(map[string]Listener, len(s.listeners))
	for name, l := range s.listeners {
		listeners[name] = l
	}
	s.mu.Unlock()

	for name, l := range listeners {
		s.invoke(name, l, event)
	}

	if len(listeners) > 0 {
		s.logger.Info("config change notified",
			zap.Int("listener_count", len(listeners)),
			zap.String("etag", event.NewConfig.Etag),
		)
	}
}

func (s *Service) invoke(name string, l Listener, event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), listenerTimeout)
	defer cancel()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("config change listener panicked",
					zap.String("listener", name),
					zap.Any("panic", r),
				)
			}
		}()
		l(ctx, event)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		s.logger.Warn("config change listener timed out",
			zap.String("listener", name),
		)
	}
}
