package snapshot

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/opflow/operator"
)

// keyWidth zero-pads nanosecond timestamps so lexical order matches time order.
const keyWidth = 20

// Encode serializes a snapshot as JSON.
func Encode(s *ContainerSnapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode %s: %w", s.ContainerName, err)
	}
	return data, nil
}

// Decode parses a JSON snapshot.
func Decode(data []byte) (*ContainerSnapshot, error) {
	var s ContainerSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if s.Operators == nil {
		s.Operators = map[string]*operator.Snapshot{}
	}
	return &s, nil
}

// ContainerPrefix returns the key prefix under which a container's
// snapshots are stored, with a trailing slash. The container name is
// escaped into a single path segment, so no two names share a prefix.
func ContainerPrefix(prefix, container string) string {
	return path.Join(prefix, keySegment(container)) + "/"
}

// keySegment escapes name so it never contains a slash and never cleans
// away. PathEscape leaves dots alone and always escapes '%', so the forms
// below cannot be produced by any other name.
func keySegment(name string) string {
	switch seg := url.PathEscape(name); seg {
	case "":
		return "%"
	case ".", "..":
		return strings.ReplaceAll(seg, ".", "%2E")
	default:
		return seg
	}
}

// Key returns the object key for a snapshot taken at ts.
func Key(prefix, container string, ts time.Time, ext string) string {
	return ContainerPrefix(prefix, container) + fmt.Sprintf("%0*d", keyWidth, ts.UnixNano()) + ext
}

// ParseKey extracts the timestamp from a key produced by Key.
func ParseKey(key string) (time.Time, error) {
	base := path.Base(key)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	ns, err := strconv.ParseInt(base, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("snapshot: malformed key %q", key)
	}
	return time.Unix(0, ns).UTC(), nil
}
