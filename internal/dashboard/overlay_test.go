package dashboard

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlay_InitiallyClosed(t *testing.T) {
	var o Overlay
	assert.False(t, o.IsOpen())
	assert.Empty(t, o.Image())
}

func TestOverlay_OpenLastWriteWins(t *testing.T) {
	var o Overlay
	o.Open("a.jpg")
	o.Open("b.jpg")
	assert.True(t, o.IsOpen())
	assert.Equal(t, "b.jpg", o.Image())
}

func TestOverlay_CloseIdempotent(t *testing.T) {
	var o Overlay
	o.Close()
	assert.False(t, o.IsOpen())

	o.Open("a.jpg")
	o.Close()
	o.Close()
	assert.False(t, o.IsOpen())
	assert.Empty(t, o.Image())
}

func TestOverlayFromQuery(t *testing.T) {
	o := OverlayFromQuery(url.Values{"zoom": {"https://img.example.com/30.jpg"}})
	assert.True(t, o.IsOpen())
	assert.Equal(t, "https://img.example.com/30.jpg", o.Image())

	for _, q := range []url.Values{{}, {"zoom": {""}}, {"other": {"x"}}} {
		o = OverlayFromQuery(q)
		assert.False(t, o.IsOpen())
		assert.Empty(t, o.Image())
	}
}
