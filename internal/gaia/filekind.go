package gaia

import (
	"path/filepath"
	"strings"
)

// FileKind groups attachment extensions by the transport that can carry the
// attachment to a model.
type FileKind int

const (
	// FileNone means the question has no attachment.
	FileNone FileKind = iota
	// FileRetrieval covers document formats answered via file search.
	FileRetrieval
	// FileCodeInterpreter covers data and code formats answered via a code
	// interpreter.
	FileCodeInterpreter
	// FileImage covers image formats answered via vision input.
	FileImage
	// FileAudio covers audio formats that are transcribed first.
	FileAudio
	// FileUnsupported covers every extension no transport can carry.
	FileUnsupported
)

var kindByExtension = map[string]FileKind{
	".docx": FileRetrieval,
	".txt":  FileRetrieval,
	".pdf":  FileRetrieval,
	".pptx": FileRetrieval,
	".csv":  FileCodeInterpreter,
	".xlsx": FileCodeInterpreter,
	".py":   FileCodeInterpreter,
	".zip":  FileCodeInterpreter,
	".jpg":  FileImage,
	".png":  FileImage,
	".mp3":  FileAudio,
}

// KindForExtension classifies a file extension. Extensions may be passed
// with or without the leading dot. Empty means no attachment; any unknown
// extension is unsupported rather than an error.
func KindForExtension(ext string) FileKind {
	ext = NormalizeExtension(ext)
	if ext == "" {
		return FileNone
	}
	if kind, ok := kindByExtension[ext]; ok {
		return kind
	}
	return FileUnsupported
}

// SupportedExtensions returns every extension some transport can carry, in
// no particular order.
func SupportedExtensions() []string {
	out := make([]string, 0, len(kindByExtension))
	for ext := range kindByExtension {
		out = append(out, ext)
	}
	return out
}

// NormalizeExtension lowercases an extension and ensures the leading dot, so
// "PDF" and ".pdf" compare equal.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ExtensionOf returns the normalized extension of a file name, or "" when
// the name has none.
func ExtensionOf(name string) string {
	return NormalizeExtension(filepath.Ext(strings.TrimSpace(name)))
}

// String names the kind for logs.
func (k FileKind) String() string {
	switch k {
	case FileNone:
		return "none"
	case FileRetrieval:
		return "retrieval"
	case FileCodeInterpreter:
		return "code_interpreter"
	case FileImage:
		return "image"
	case FileAudio:
		return "audio"
	default:
		return "unsupported"
	}
}
