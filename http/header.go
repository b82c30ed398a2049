package http

import (
	"net/textproto"

	"github.com/freekieb7/strand/hashmap"
)

// headerCarrier exposes a header store to OTel propagators. Propagators ask
// for lower case keys while clients usually send canonical ones, so Get falls
// back to the canonical form.
type headerCarrier struct {
	headers *hashmap.Map[string]
}

func (c headerCarrier) Get(key string) string {
	if entry, found := c.headers.Get(key); found {
		return entry.Value
	}
	if entry, found := c.headers.Get(textproto.CanonicalMIMEHeaderKey(key)); found {
		return entry.Value
	}
	return ""
}

// Set stores value under key. A destroyed store drops the value, since
// TextMapCarrier gives Set no way to report it.
func (c headerCarrier) Set(key, value string) {
	_, _, _ = c.headers.Set(key, value)
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, c.headers.Len())
	_ = c.headers.ForEach(func(entry *hashmap.Entry[string]) {
		keys = append(keys, entry.Key)
	})
	return keys
}
