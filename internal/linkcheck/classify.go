package linkcheck

import (
	"bytes"
	"net/http"
)

// Page markers on the vendor's item pages.
var (
	markerPlayer      = []byte("song-play")
	markerPlaylists   = []byte("playlists-right")
	markerNotInRegion = []byte("not available in your country")
	markerNotFound    = []byte("notfindCon-text")
	markerLogin       = []byte("cardNo")
)

// Classify maps an HTTP status and page body to a link status.
func Classify(statusCode int, body []byte) Status {
	if statusCode == http.StatusNotFound || statusCode == http.StatusGone {
		return Dead
	}
	switch {
	case bytes.Contains(body, markerPlayer):
		return Live
	case bytes.Contains(body, markerPlaylists) && bytes.Contains(bytes.ToLower(body), markerNotInRegion):
		return Unavailable
	case bytes.Contains(body, markerNotFound):
		return Dead
	case bytes.Contains(body, markerLogin):
		return Blocked
	default:
		return Unknown
	}
}
