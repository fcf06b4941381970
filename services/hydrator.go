package services

import (
	"context"
	"fmt"
	"log/slog"
	"member-chat/contract"
	"member-chat/domain"
	"member-chat/domain/event"
	"member-chat/errors"
	"member-chat/repositories"
	"time"
)

// Hydrator resolves everything a client needs to render a message: sender
// identity, reactions, attachment metadata with a signed URL, receipts.
type Hydrator struct {
	messages  repositories.IMessageRepository
	directory contract.Directory
	store     contract.ObjectStore
	urlTTL    time.Duration
	log       *slog.Logger
}

func NewHydrator(messages repositories.IMessageRepository, directory contract.Directory, store contract.ObjectStore, urlTTL time.Duration, log *slog.Logger) *Hydrator {
	return &Hydrator{messages: messages, directory: directory, store: store, urlTTL: urlTTL, log: log}
}

func (h *Hydrator) Hydrate(ctx context.Context, e event.ChangeEvent) (domain.HydratedMessage, error) {
	switch ev := e.(type) {
	case event.MessageInserted:
		return h.hydrateInserted(ctx, ev.Row)
	case event.MessageUpdated:
		return h.HydrateMessage(ctx, ev.Row)
	default:
		return domain.HydratedMessage{}, fmt.Errorf("%w: %s", errors.ErrInvalidPayload, e.Kind())
	}
}

// hydrateInserted starts from empty reaction and receipt state: nothing can
// reference a message before it is inserted. Attachments are written in the
// same transaction as the message, so they are loaded.
func (h *Hydrator) hydrateInserted(ctx context.Context, msg domain.Message) (domain.HydratedMessage, error) {
	sender, err := h.sender(ctx, msg)
	if err != nil {
		return domain.HydratedMessage{}, err
	}
	attachments, err := h.messages.ListAttachments(ctx, msg.ID)
	if err != nil {
		return domain.HydratedMessage{}, err
	}
	views, err := h.attachmentViews(msg, attachments)
	if err != nil {
		return domain.HydratedMessage{}, err
	}
	return domain.HydratedMessage{
		Message:     msg,
		Sender:      sender,
		Reactions:   []domain.Reaction{},
		Attachments: views,
	}, nil
}

// HydrateMessage loads the full current state of msg.
func (h *Hydrator) HydrateMessage(ctx context.Context, msg domain.Message) (domain.HydratedMessage, error) {
	sender, err := h.sender(ctx, msg)
	if err != nil {
		return domain.HydratedMessage{}, err
	}
	details, err := h.messages.Details(ctx, msg.ID)
	if err != nil {
		return domain.HydratedMessage{}, err
	}
	views, err := h.attachmentViews(msg, details.Attachments)
	if err != nil {
		return domain.HydratedMessage{}, err
	}
	return domain.HydratedMessage{
		Message:     msg,
		Sender:      sender,
		Reactions:   details.Reactions,
		Attachments: views,
		Receipts:    details.Receipts,
	}, nil
}

func (h *Hydrator) sender(ctx context.Context, msg domain.Message) (*domain.Sender, error) {
	if msg.SenderID == nil {
		return nil, nil
	}
	sender, err := h.directory.Lookup(ctx, *msg.SenderID)
	if err != nil {
		return nil, err
	}
	return &sender, nil
}

// attachmentViews signs a download URL per attachment. Rows of a deleted
// message are kept in storage but no longer offered for download.
func (h *Hydrator) attachmentViews(msg domain.Message, attachments []domain.Attachment) ([]domain.AttachmentView, error) {
	if msg.IsDeleted {
		return []domain.AttachmentView{}, nil
	}
	views := make([]domain.AttachmentView, 0, len(attachments))
	for _, att := range attachments {
		url, err := h.store.SignedURL(att.StoragePath, h.urlTTL)
		if err != nil {
			h.log.Error("Unable to sign attachment url", "message_id", msg.ID, "path", att.StoragePath, "error", err)
			return nil, err
		}
		views = append(views, domain.AttachmentView{
			ID:       att.ID,
			FileName: att.FileName,
			MimeType: att.MimeType,
			FileSize: att.FileSize,
			URL:      url,
		})
	}
	return views, nil
}
