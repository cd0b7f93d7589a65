package requestid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfshare/notifier/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		reused   bool
	}{
		{name: "generates id when header absent", incoming: "", reused: false},
		{name: "preserves valid incoming id", incoming: "req-abc_123", reused: true},
		{name: "replaces id with invalid characters", incoming: "bad id;drop", reused: false},
		{name: "replaces oversized id", incoming: strings.Repeat("a", 200), reused: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := requestid.FromContext(r.Context())
				require.True(t, ok)
				seen = id
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(requestid.Header, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(requestid.Header))
			if tt.reused {
				assert.Equal(t, tt.incoming, seen)
			} else {
				assert.NotEqual(t, tt.incoming, seen)
			}
		})
	}
}
