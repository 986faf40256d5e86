// Package datasource resolves a configured input location to a byte source.
// Locations starting with http:// or https:// are fetched over HTTP; anything
// else is treated as a local filesystem path.
package datasource

import (
	"context"
	"io"
	"strings"

	"beautywiz/internal/datasource/file"
	"beautywiz/internal/datasource/httpds"
)

// Source opens a stream of input bytes. Callers must close the reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// ForLocation returns the Source for loc. client is used for remote
// locations and may be nil, in which case a default client is built.
func ForLocation(loc string, client *httpds.Client) Source {
	if IsRemote(loc) {
		if client == nil {
			client = httpds.NewClient(httpds.Config{})
		}
		return httpds.NewRemote(client, loc)
	}
	return file.NewLocal(loc)
}

// IsRemote reports whether loc is an HTTP(S) URL.
func IsRemote(loc string) bool {
	l := strings.ToLower(strings.TrimSpace(loc))
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
