package postgres

import (
	"context"
	"fmt"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/fleetcal/internal/constants"
	"github.com/julianstephens/fleetcal/internal/logger"
)

// Writes from any session fire the services_notify trigger, so the store does
// not broadcast its own writes; they arrive through the listener like
// everyone else's.

type listener struct {
	pq     *pq.Listener
	cancel context.CancelFunc
}

const listenerPingInterval = 90 * time.Second

func (s *Store) startListen() error {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()

	if s.listen != nil {
		return nil
	}

	l := pq.NewListener(s.connStr, constants.ListenerMinReconnect, constants.ListenerMaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Warn("Change listener event", "event", ev, "error", err)
			}
		})
	if err := l.Listen(constants.ChangeChannel); err != nil {
		l.Close()
		return fmt.Errorf("failed to listen on %s: %w", constants.ChangeChannel, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.listen = &listener{pq: l, cancel: cancel}
	go s.listenLoop(ctx, l)

	logger.Debug("Listening for service changes", "channel", constants.ChangeChannel)
	return nil
}

func (s *Store) listenLoop(ctx context.Context, l *pq.Listener) {
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-l.Notify:
			if !ok {
				return
			}
			// A nil notification follows a reconnect; events may have been
			// missed, so treat it as a change.
			if n == nil {
				logger.Debug("Change listener reconnected")
			}
			s.hub.Broadcast()
		case <-ticker.C:
			go func() {
				if err := l.Ping(); err != nil {
					logger.Debug("Change listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (s *Store) stopListen() {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()

	if s.listen == nil {
		return
	}
	s.listen.cancel()
	if err := s.listen.pq.Close(); err != nil {
		logger.Debug("Failed to close change listener", "error", err)
	}
	s.listen = nil
}
