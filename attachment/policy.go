// Package attachment decides which files may be attached to a message.
// It runs before anything is uploaded so a rejected file never reaches
// object storage.
package attachment

import (
	"fmt"
	"member-chat/domain"
	"member-chat/domain/mimetypes"
	"member-chat/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
)

const (
	MaxFileSize   int64 = 6 << 20
	MaxPerMessage       = 5
)

// genericTypes are sniffer results that do not identify a format: containers
// whose members the sniffer cannot always tell apart, or no match at all.
var genericTypes = []string{
	"application/octet-stream",
	"application/x-ole-storage",
	"application/zip",
}

var DefaultAllowed = []mimetypes.MIME{
	mimetypes.ImageJPEG,
	mimetypes.ImagePNG,
	mimetypes.ImageWEBP,
	mimetypes.ImageGIF,
	mimetypes.ApplicationPDF,
	mimetypes.ApplicationMSWord,
	mimetypes.ApplicationDOCX,
	mimetypes.TextPlain,
}

// Candidate describes a file a member wants to attach.
// Head holds the first bytes of the content when available and is used to
// sniff the real type.
type Candidate struct {
	FileName     string
	DeclaredType string
	Size         int64
	Head         []byte
}

type Policy struct {
	allowed  map[mimetypes.MIME]struct{}
	maxSize  int64
	maxCount int
}

func NewPolicy() Policy {
	return NewPolicyWith(DefaultAllowed, MaxFileSize, MaxPerMessage)
}

func NewPolicyWith(allowed []mimetypes.MIME, maxSize int64, maxCount int) Policy {
	return Policy{
		allowed:  lo.SliceToMap(allowed, func(m mimetypes.MIME) (mimetypes.MIME, struct{}) { return m, struct{}{} }),
		maxSize:  maxSize,
		maxCount: maxCount,
	}
}

// Resolve returns the effective MIME type of the candidate or the reason it
// is rejected. Size is checked first so an oversized file is always reported
// as too large, whatever its type. The type is matched on the sniffed
// content, then the declared type, then the file extension. The declared
// type and extension are only consulted when sniffing was inconclusive.
func (p Policy) Resolve(c Candidate) (mimetypes.MIME, error) {
	if c.Size > p.maxSize {
		return mimetypes.Unknown, fmt.Errorf("%w: %d bytes, limit is %d", errors.ErrAttachmentTooLarge, c.Size, p.maxSize)
	}
	if c.Size <= 0 {
		return mimetypes.Unknown, fmt.Errorf("%w: empty file", errors.ErrValidation)
	}

	if len(c.Head) > 0 {
		sniffed := mimetype.Detect(c.Head)
		if m, err := mimetypes.Parse(sniffed.String()); err == nil && p.isAllowed(m) {
			return m, nil
		}
		if !lo.ContainsBy(genericTypes, sniffed.Is) {
			return mimetypes.Unknown, fmt.Errorf("%w: %q is %s", errors.ErrUnsupportedAttachment, c.FileName, sniffed.String())
		}
	}
	if c.DeclaredType != "" {
		if m, err := mimetypes.Parse(c.DeclaredType); err == nil && p.isAllowed(m) {
			return m, nil
		}
	}

	if m, ok := mimetypes.FromExtension(c.FileName); ok && p.isAllowed(m) {
		return m, nil
	}
	return mimetypes.Unknown, fmt.Errorf("%w: %q", errors.ErrUnsupportedAttachment, c.FileName)
}

// CheckRefs validates the attachments referenced by a message being sent.
// What each ref points at is checked by CheckStored.
func (p Policy) CheckRefs(refs []domain.AttachmentRef) error {
	if len(refs) > p.maxCount {
		return fmt.Errorf("%w: %d attached, limit is %d", errors.ErrTooManyAttachments, len(refs), p.maxCount)
	}
	for _, ref := range refs {
		if ref.StoragePath == "" {
			return fmt.Errorf("%w: attachment without storage path", errors.ErrValidation)
		}
	}
	return nil
}

// CheckStored applies the policy to an object as the store reports it.
func (p Policy) CheckStored(storagePath, contentType string, size int64) (mimetypes.MIME, error) {
	return p.Resolve(Candidate{FileName: storagePath, DeclaredType: contentType, Size: size})
}

func (p Policy) isAllowed(m mimetypes.MIME) bool {
	_, ok := p.allowed[m]
	return ok
}
