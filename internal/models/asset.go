package models

import (
	"path"
	"strings"
)

// TrackAssetName is the asset name used for the single audio track of a video
const TrackAssetName = "audio"

// AudioAsset is one piece of narration audio found inside a container.
// The encoded bytes live at Path inside the pipeline workspace; Buffer is
// filled while the asset is being processed and dropped afterwards.
type AudioAsset struct {
	// Name is the entry path inside the archive, or TrackAssetName
	Name string `json:"name"`
	// Path is the scratch file holding the encoded bytes
	Path string `json:"-"`
	// Codec is the lowercase source codec tag (file extension without dot)
	Codec string `json:"codec"`
	Size  int64  `json:"size"`
	// BitRate is the probed source bit rate in bits/s, reused when
	// re-encoding lossy codecs (0 when unknown)
	BitRate int `json:"bit_rate,omitempty"`

	Buffer *Buffer `json:"-"`
	// Replaced is set once Path holds processed bytes
	Replaced bool `json:"replaced"`
}

// CodecFromName returns the codec tag for an entry or file name
func CodecFromName(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

// BaseName returns the last element of the asset name
func (a *AudioAsset) BaseName() string {
	return path.Base(a.Name)
}
