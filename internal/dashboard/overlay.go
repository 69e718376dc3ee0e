package dashboard

import "net/url"

// Overlay is the full-size image view. The zero value is closed. The page
// rebuilds it from each request with OverlayFromQuery, so dismissing it is a
// request without a zoom parameter.
type Overlay struct {
	open  bool
	image string
}

// Open shows ref, replacing any image already shown.
func (o *Overlay) Open(ref string) {
	o.open = true
	o.image = ref
}

// Close hides the overlay. Closing a closed overlay does nothing.
func (o *Overlay) Close() {
	o.open = false
	o.image = ""
}

// IsOpen reports whether an image is shown.
func (o Overlay) IsOpen() bool {
	return o.open
}

// Image returns the shown image reference, or "" when closed.
func (o Overlay) Image() string {
	return o.image
}

// OverlayFromQuery opens the overlay on the zoom parameter's image, or closes
// it when the parameter is absent or empty.
func OverlayFromQuery(q url.Values) Overlay {
	var o Overlay
	if ref := q.Get("zoom"); ref != "" {
		o.Open(ref)
	} else {
		o.Close()
	}
	return o
}
