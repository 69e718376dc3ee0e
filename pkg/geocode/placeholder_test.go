package geocode

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubReverser struct {
	place *Place
	err   error
}

func (s stubReverser) Reverse(_ context.Context, _, _ float64) (*Place, error) {
	return s.place, s.err
}

func TestAddressOrPlaceholder(t *testing.T) {
	tests := []struct {
		name     string
		r        Reverser
		want     string
		resolved bool
	}{
		{name: "match", r: stubReverser{place: &Place{DisplayName: "Times Square, New York"}}, want: "Times Square, New York", resolved: true},
		{name: "no address", r: stubReverser{err: ErrNoAddress}, want: PlaceholderNotFound},
		{name: "nil place", r: stubReverser{}, want: PlaceholderNotFound},
		{name: "empty name", r: stubReverser{place: &Place{}}, want: PlaceholderNotFound},
		{name: "transport error", r: stubReverser{err: errors.New("dial tcp: connection refused")}, want: PlaceholderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AddressOrPlaceholder(context.Background(), tt.r, 40.7, -74.0)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.resolved, ok)
		})
	}
}

func TestAddressOrPlaceholder_HTTPFailureNeverRaises(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	got, ok := AddressOrPlaceholder(context.Background(), c, 40.7, -74.0)
	assert.Equal(t, PlaceholderError, got)
	assert.False(t, ok)
}
