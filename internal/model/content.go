package model

import "strings"

// ContentFragment is one unpacked piece of document content (a page, a
// spine item, a section) handed over by the upstream unpacker.
type ContentFragment struct {
	Path string
	Data string
}

// FileManifest lists the file paths inside the unpacked document package.
type FileManifest []string

var audioExtensions = []string{".mp3", ".wav", ".ogg", ".m4a", ".aac", ".flac", ".opus"}
var videoExtensions = []string{".mp4", ".webm", ".mov", ".avi", ".mkv", ".m4v", ".ogv"}

// HasAudioFiles reports whether the manifest contains audio file
// extensions.
func (m FileManifest) HasAudioFiles() bool {
	return m.hasExtension(audioExtensions)
}

// HasVideoFiles reports whether the manifest contains video file
// extensions.
func (m FileManifest) HasVideoFiles() bool {
	return m.hasExtension(videoExtensions)
}

func (m FileManifest) hasExtension(exts []string) bool {
	for _, path := range m {
		lower := strings.ToLower(path)
		for _, ext := range exts {
			if strings.HasSuffix(lower, ext) {
				return true
			}
		}
	}
	return false
}
