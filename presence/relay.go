package presence

import (
	"context"
	"fmt"
	"log/slog"
	"member-chat/errors"
)

// Relay feeds the local tracker from the bus. It runs under the supervisor.
type Relay struct {
	bus     Bus
	tracker *Tracker
	log     *slog.Logger
}

func NewRelay(bus Bus, tracker *Tracker, log *slog.Logger) *Relay {
	return &Relay{bus: bus, tracker: tracker, log: log}
}

func (r *Relay) Run(ctx context.Context) error {
	updates, err := r.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("Context done, stopping presence relay")
			return nil
		case u, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.Transient(fmt.Errorf("presence bus subscription closed"))
			}
			r.tracker.Apply(u)
		}
	}
}
