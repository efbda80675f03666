// Package fileid derives stable item ids from corpus record ids.
package fileid

import (
	"path"
	"strings"
)

// ItemID returns the item id for a corpus record id: its base name.
// "materials/56.pdf" and "56.pdf" both yield "56.pdf". Both slash styles are
// accepted since record ids come from archives built on either platform.
func ItemID(recordID string) string {
	id := strings.TrimSpace(recordID)
	id = strings.ReplaceAll(id, `\`, "/")
	id = strings.TrimRight(id, "/")
	if id == "" {
		return ""
	}
	return path.Base(id)
}
