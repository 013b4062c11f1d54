package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	errwrap "github.com/folio/folio/internal/errors"
	"github.com/folio/folio/internal/ogcard"
)

// OGImage handles GET /api/og?title=&subtitle= and returns a PNG card.
func (a *API) OGImage(w http.ResponseWriter, r *http.Request) {
	if a.Cards == nil {
		respondWithError(w, r, errwrap.NewServiceUnavailableError("Card rendering is not configured."))
		return
	}

	values := r.URL.Query()
	card := ogcard.Resolve(values.Get("title"), values.Get("subtitle"), a.OG.Title, a.OG.Subtitle)

	var buf bytes.Buffer
	if err := a.Cards.Encode(&buf, card); err != nil {
		respondWithError(w, r, errwrap.WrapInternal(r.Context(), err, "Unable to render card."))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
