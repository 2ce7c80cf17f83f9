// Package bind decodes and validates request bodies in one call.
package bind

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/pustak/pkg/response"
	"github.com/shashiranjanraj/pustak/pkg/validate"
)

// maxBodySize caps JSON request bodies at 1 MiB.
const maxBodySize = 1 << 20

// JSON decodes the request body into dst and validates it against its
// `validate` tags. On failure it writes the error response itself and
// returns false; handlers should simply return.
//
//	var req CreateOrderRequest
//	if !bind.JSON(w, r, &req) {
//		return
//	}
func JSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}

	if errs := validate.Struct(dst); len(errs) > 0 {
		response.ValidationError(w, errs)
		return false
	}

	return true
}
