package mimetypes

import (
	"mime"
	"path/filepath"
	"strings"
)

type MIME string

const (
	Unknown   MIME = "unknown"
	TextPlain MIME = "text/plain"

	ApplicationPDF    MIME = "application/pdf"
	ApplicationMSWord MIME = "application/msword"
	ApplicationDOCX   MIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWEBP MIME = "image/webp"
)

var extensions = map[string]MIME{
	".txt":  TextPlain,
	".pdf":  ApplicationPDF,
	".doc":  ApplicationMSWord,
	".docx": ApplicationDOCX,
	".png":  ImagePNG,
	".jpg":  ImageJPEG,
	".jpeg": ImageJPEG,
	".gif":  ImageGIF,
	".webp": ImageWEBP,
}

func Matches(detected string, expected MIME) (MIME, bool) {
	mt, err := Parse(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == expected
}

// Parse strips parameters such as charset from a media type.
func Parse(detected string) (MIME, error) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, err
	}
	return MIME(strings.ToLower(mt)), nil
}

// FromExtension maps a file name to a MIME using its extension.
func FromExtension(fileName string) (MIME, bool) {
	m, ok := extensions[strings.ToLower(filepath.Ext(fileName))]
	if !ok {
		return Unknown, false
	}
	return m, true
}

// Extension returns the canonical extension for m, empty when unknown.
func Extension(m MIME) string {
	switch m {
	case ImageJPEG:
		return ".jpg"
	case TextPlain:
		return ".txt"
	}
	for ext, candidate := range extensions {
		if candidate == m {
			return ext
		}
	}
	return ""
}

func IsImage(m MIME) bool {
	return strings.HasPrefix(string(m), "image/")
}
