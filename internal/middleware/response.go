package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
)

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindUnauthorized:
		status = http.StatusUnauthorized
	case domain.KindForbidden:
		status = http.StatusForbidden
	case domain.KindRateLimited:
		status = http.StatusTooManyRequests
	}
	msg := domain.MessageOf(err)
	if status == http.StatusInternalServerError || msg == "" {
		msg = "Internal server error"
	}
	writeMessage(w, status, msg)
}
