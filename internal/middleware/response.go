package middleware

import (
	"net/http"

	"gitlab.tepseg.com/ai/imagegen-backend/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
