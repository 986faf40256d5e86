package datasource

import (
	"testing"

	"beautywiz/internal/datasource/file"
	"beautywiz/internal/datasource/httpds"
)

func TestForLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		loc        string
		wantRemote bool
	}{
		{loc: "data/cosmetic_p.csv", wantRemote: false},
		{loc: "/abs/BeautyFeeds.csv", wantRemote: false},
		{loc: "http://example.test/cscpopendata.csv", wantRemote: true},
		{loc: "  HTTPS://example.test/feed.csv", wantRemote: true},
	}
	for _, tt := range tests {
		src := ForLocation(tt.loc, nil)
		switch src.(type) {
		case *httpds.Remote:
			if !tt.wantRemote {
				t.Fatalf("ForLocation(%q) = remote, want local", tt.loc)
			}
		case *file.Local:
			if tt.wantRemote {
				t.Fatalf("ForLocation(%q) = local, want remote", tt.loc)
			}
		default:
			t.Fatalf("ForLocation(%q) returned %T", tt.loc, src)
		}
	}
}
