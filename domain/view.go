package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Sender is the resolved identity shown next to a message.
type Sender struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type ReactionTally struct {
	Emoji       string `json:"emoji"`
	Count       int    `json:"count"`
	ReactedByMe bool   `json:"reacted_by_me"`
}

type AttachmentView struct {
	ID       uuid.UUID `json:"id"`
	FileName string    `json:"file_name"`
	MimeType string    `json:"mime_type"`
	FileSize int64     `json:"file_size"`
	URL      string    `json:"url"`
}

// MessageView is a fully hydrated message as seen by one member.
type MessageView struct {
	Message     Message          `json:"message"`
	Sender      *Sender          `json:"sender,omitempty"`
	Reactions   []ReactionTally  `json:"reactions"`
	Attachments []AttachmentView `json:"attachments"`
	ReadAt      *time.Time       `json:"read_at,omitempty"` // the viewer's own receipt
}

// HydratedMessage carries everything needed to render a message for any
// member of its room. ForViewer personalises it.
type HydratedMessage struct {
	Message     Message
	Sender      *Sender
	Reactions   []Reaction
	Attachments []AttachmentView
	Receipts    []ReadReceipt
}

func (h HydratedMessage) ForViewer(viewerID string) MessageView {
	view := MessageView{
		Message:     h.Message,
		Sender:      h.Sender,
		Reactions:   TallyReactions(h.Reactions, viewerID),
		Attachments: h.Attachments,
	}
	if view.Attachments == nil {
		view.Attachments = []AttachmentView{}
	}
	for _, r := range h.Receipts {
		if r.UserID == viewerID {
			readAt := r.ReadAt
			view.ReadAt = &readAt
			break
		}
	}
	return view
}

// TallyReactions groups reactions by emoji, ordered by first use.
func TallyReactions(reactions []Reaction, viewerID string) []ReactionTally {
	sorted := make([]Reaction, len(reactions))
	copy(sorted, reactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	tallies := make([]ReactionTally, 0)
	index := make(map[string]int)
	for _, r := range sorted {
		i, ok := index[r.Emoji]
		if !ok {
			i = len(tallies)
			index[r.Emoji] = i
			tallies = append(tallies, ReactionTally{Emoji: r.Emoji})
		}
		tallies[i].Count++
		if r.UserID == viewerID {
			tallies[i].ReactedByMe = true
		}
	}
	return tallies
}

// Before orders messages by (created_at, id), the room order.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID.String() < other.ID.String()
}
