package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medledger/internal/delivery/dto"
	"medledger/internal/usecase"
	"medledger/pkg/response"
	"medledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const dateLayout = "2006-01-02"

// decodeAndValidate reads a JSON body into req and writes the 400 itself
// when it cannot. An empty body leaves req zero and lets validation decide.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.CustomValidator, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}

	if err := v.Validate(req); err != nil {
		response.ValidationError(w, v.FormatValidationErrors(err))
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+label+" ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func pathInt64(w http.ResponseWriter, r *http.Request, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		response.Error(w, http.StatusBadRequest, "Invalid "+label+" ID", nil)
		return 0, false
	}
	return id, true
}

// pageParams reads page and limit; usecases clamp them.
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// queryOptionalBool returns nil when the parameter is absent or malformed.
func queryOptionalBool(r *http.Request, name string) *bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

// queryTime accepts RFC 3339 timestamps or plain dates.
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func successPage[T any](w http.ResponseWriter, message string, page *dto.Page[T]) {
	response.SuccessWithMeta(w, http.StatusOK, message, page.Items, response.NewMeta(page.Page, page.Limit, page.Total))
}

// unauthenticated handles the identity errors every protected usecase can
// return and reports whether it wrote a response.
func unauthenticated(w http.ResponseWriter, err error) bool {
	if errors.Is(err, usecase.ErrUnauthenticated) {
		response.Unauthorized(w, "Authentication required")
		return true
	}
	return false
}
