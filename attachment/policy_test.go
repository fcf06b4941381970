package attachment

import (
	"member-chat/domain"
	"member-chat/domain/mimetypes"
	"member-chat/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestPolicy_Resolve(t *testing.T) {
	policy := NewPolicy()

	tests := []struct {
		name    string
		in      Candidate
		want    mimetypes.MIME
		wantErr error
	}{
		{
			name: "sniffed png",
			in:   Candidate{FileName: "photo.bin", Size: 1024, Head: pngHeader},
			want: mimetypes.ImagePNG,
		},
		{
			name: "sniffed pdf with misleading declared type",
			in:   Candidate{FileName: "invoice", DeclaredType: "application/octet-stream", Size: 2048, Head: []byte("%PDF-1.7\n")},
			want: mimetypes.ApplicationPDF,
		},
		{
			name: "declared type when content is not available",
			in:   Candidate{FileName: "cv", DeclaredType: "application/msword", Size: 10},
			want: mimetypes.ApplicationMSWord,
		},
		{
			name: "extension fallback",
			in:   Candidate{FileName: "report.DOCX", DeclaredType: "application/octet-stream", Size: 10},
			want: mimetypes.ApplicationDOCX,
		},
		{
			name: "plain text with charset",
			in:   Candidate{FileName: "notes", Size: 11, Head: []byte("hello world")},
			want: mimetypes.TextPlain,
		},
		{
			name:    "unsupported executable",
			in:      Candidate{FileName: "setup.exe", DeclaredType: "application/x-msdownload", Size: 10},
			wantErr: errors.ErrUnsupportedAttachment,
		},
		{
			name:    "executable renamed to png",
			in:      Candidate{FileName: "a.png", DeclaredType: "image/png", Size: 10, Head: []byte("MZ\x90\x00\x03\x00\x00\x00")},
			wantErr: errors.ErrUnsupportedAttachment,
		},
		{
			name: "unidentified content falls back to declared type",
			in:   Candidate{FileName: "scan", DeclaredType: "application/pdf", Size: 5, Head: []byte{0xde, 0xad, 0xbe, 0xef, 0x00}},
			want: mimetypes.ApplicationPDF,
		},
		{
			name:    "too large wins over unsupported",
			in:      Candidate{FileName: "movie.mkv", DeclaredType: "video/x-matroska", Size: MaxFileSize + 1},
			wantErr: errors.ErrAttachmentTooLarge,
		},
		{
			name: "exactly the limit is accepted",
			in:   Candidate{FileName: "big.pdf", Size: MaxFileSize},
			want: mimetypes.ApplicationPDF,
		},
		{
			name:    "empty file",
			in:      Candidate{FileName: "empty.txt", Size: 0},
			wantErr: errors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got, err := policy.Resolve(tt.in)
			if tt.wantErr != nil {
				req.ErrorIs(err, tt.wantErr)
				req.ErrorIs(err, errors.ErrValidation)
				return
			}
			req.NoError(err)
			req.Equal(tt.want, got)
		})
	}
}

func TestPolicy_CheckRefs(t *testing.T) {
	req := require.New(t)
	policy := NewPolicy()
	ref := domain.AttachmentRef{StoragePath: "rooms/1/a.png", FileName: "a.png", MimeType: "image/png", FileSize: 10}

	req.NoError(policy.CheckRefs(nil))
	req.NoError(policy.CheckRefs([]domain.AttachmentRef{ref, ref, ref, ref, ref}))
	req.ErrorIs(policy.CheckRefs([]domain.AttachmentRef{ref, ref, ref, ref, ref, ref}), errors.ErrTooManyAttachments)

	missingPath := ref
	missingPath.StoragePath = ""
	req.ErrorIs(policy.CheckRefs([]domain.AttachmentRef{missingPath}), errors.ErrValidation)
}

func TestPolicy_CheckStored(t *testing.T) {
	req := require.New(t)
	policy := NewPolicy()

	got, err := policy.CheckStored("rooms/r1/5f0c.png", "image/png", 10)
	req.NoError(err)
	req.Equal(mimetypes.ImagePNG, got)

	_, err = policy.CheckStored("rooms/r1/5f0c.png", "image/png", MaxFileSize+1)
	req.ErrorIs(err, errors.ErrAttachmentTooLarge)

	_, err = policy.CheckStored("rooms/r1/5f0c.bin", "application/x-msdownload", 10)
	req.ErrorIs(err, errors.ErrUnsupportedAttachment)
}
