package apiutil

import (
	"net/http"

	"github.com/codr1/quickcourt/internal/courts"
)

// LoadOwnedCourt resolves the {id} court and checks that the caller owns its
// venue. It writes the error response itself and reports false on failure.
func LoadOwnedCourt(w http.ResponseWriter, r *http.Request, reg *courts.Registry) (courts.Court, bool) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return courts.Court{}, false
	}
	court, venue, err := reg.CourtWithVenue(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return courts.Court{}, false
	}
	if _, ok := RequireVenueOwner(w, r, venue.OwnerID); !ok {
		return courts.Court{}, false
	}
	return court, true
}
