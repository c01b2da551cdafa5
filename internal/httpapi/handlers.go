package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/AaronC17/Projecto-Moviles-2/internal/store"
	"github.com/AaronC17/Projecto-Moviles-2/internal/types"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	maxBody = 64 << 10
	qrSize  = 320
)

// Recorder is the part of the history store the HTTP layer writes to.
type Recorder interface {
	SaveJugadas(ctx context.Context, jugadas []store.Jugada) error
	SaveAdivinanza(ctx context.Context, a *store.Adivinanza) error
}

var errEmptyBody = errors.New("empty body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errEmptyBody
	}
	return raw, nil
}

// SaveJugadas accepts one move record or an array of them.
func SaveJugadas(rec Recorder, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := readBody(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var jugadas []store.Jugada
		if raw[0] == '[' {
			err = json.Unmarshal(raw, &jugadas)
		} else {
			var j store.Jugada
			err = json.Unmarshal(raw, &j)
			jugadas = append(jugadas, j)
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		for _, j := range jugadas {
			if err := types.Validate(j); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		if err := rec.SaveJugadas(r.Context(), jugadas); err != nil {
			log.Error("save jugadas", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not save")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
	}
}

func SaveAdivinanza(rec Recorder, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := readBody(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var a store.Adivinanza
		if err := json.Unmarshal(raw, &a); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := types.Validate(a); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := rec.SaveAdivinanza(r.Context(), &a); err != nil {
			log.Error("save adivinanza", zap.Error(err), zap.String("player", a.Jugador))
			writeError(w, http.StatusInternalServerError, "could not save")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
	}
}

// JoinQR renders the websocket join address as a PNG QR code.
func JoinQR(joinURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		png, err := qrcode.Encode(joinURL, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
