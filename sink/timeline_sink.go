package sink

import (
	"context"
	"member-chat/domain/event"
	"member-chat/projection"
)

// TimelineSink projects deliveries into a client-held timeline.
type TimelineSink struct {
	Timeline *projection.Timeline
	OnChange func()
}

func NewTimelineSink(timeline *projection.Timeline, onChange func()) *TimelineSink {
	if onChange == nil {
		onChange = func() {}
	}
	return &TimelineSink{Timeline: timeline, OnChange: onChange}
}

func (t *TimelineSink) Consume(_ context.Context, d event.Delivery) error {
	if t.Timeline.Apply(d) {
		t.OnChange()
	}
	return nil
}
