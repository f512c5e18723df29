package badger

import (
	"encoding/binary"
	"strings"

	"github.com/poiesic/wikipath/core"
)

// Key prefixes for different data types
const (
	pagePrefix     = "page"
	redirectPrefix = "redir"
	foldPrefix     = "fold"
	vectorPrefix   = "vec"
)

// makePageKey generates a key for a page by ID.
// Format: prefix:id (BigEndian)
func makePageKey(id core.ID) []byte {
	prefix := []byte(pagePrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeRedirectKey generates a key for a redirect by source title.
// Format: prefix:title
func makeRedirectKey(title string) []byte {
	return []byte(redirectPrefix + ":" + title)
}

// makeFoldKey generates the case-insensitive lookup key for a title.
// Format: prefix:lowercased title
func makeFoldKey(title string) []byte {
	return []byte(foldPrefix + ":" + strings.ToLower(title))
}

// makeVectorKey generates a key for a label embedding under a model.
// Format: prefix:model:id (BigEndian)
func makeVectorKey(model, label string) []byte {
	prefix := []byte(vectorPrefix + ":" + model + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(label)))
	return buf
}
