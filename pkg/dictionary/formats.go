package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents different dictionary file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatMsgpack            // MessagePack snapshot written by the prepare pipeline
	FormatText               // One word per line
	FormatLexicon            // Tab separated lexicon, header row first, word in column 0
)

// FormatInfo contains metadata about a dictionary file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatMsgpack: {
		Format:      FormatMsgpack,
		Description: "MessagePack Dictionary Snapshot",
		Extensions:  []string{".msgpack", ".mp"},
		MinSize:     1, // an empty array or map is a single byte
	},
	FormatText: {
		Format:      FormatText,
		Description: "Plain Text Word List",
		Extensions:  []string{".txt"},
		MinSize:     1,
	},
	FormatLexicon: {
		Format:      FormatLexicon,
		Description: "Tab Separated Frequency Lexicon",
		Extensions:  []string{".tsv", ".tab"},
		MinSize:     1,
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "Unknown"
}

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return fmt.Errorf("unknown format: %v", expectedFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	if !hasExtension(filename, formatInfo.Extensions) {
		return fmt.Errorf("file %s has invalid extension %s for format %s (expected: %v)",
			filename, filepath.Ext(filename), formatInfo.Description, formatInfo.Extensions)
	}

	log.Debugf("File %s validated as %s", filename, formatInfo.Description)
	return nil
}

// DetectFileFormat picks the format from the file extension
func DetectFileFormat(filename string) (FileFormat, error) {
	for _, format := range []FileFormat{FormatMsgpack, FormatText, FormatLexicon} {
		if hasExtension(filename, supportedFormats[format].Extensions) {
			return format, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}

func hasExtension(filename string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, validExtension := range extensions {
		if ext == validExtension {
			return true
		}
	}
	return false
}
