package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/usecase"
)

const profileImageField = "profileImage"

// readForm accepts a JSON object or a multipart form and flattens it into
// dotted keys ({"vehicle":{"type":"bike"}} and vehicle[type]=bike both
// become "vehicle.type"). A multipart profileImage part is returned as an upload.
func readForm(r *http.Request, maxBytes int64) (domain.SignupForm, *usecase.Upload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readMultipart(r, maxBytes)
	}

	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		return nil, nil, err
	}
	form := domain.SignupForm{}
	flatten("", body, form)
	return form, nil, nil
}

func flatten(prefix string, v map[string]any, out domain.SignupForm) {
	for k, val := range v {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch x := val.(type) {
		case map[string]any:
			flatten(key, x, out)
		case string:
			out[key] = x
		case float64:
			out[key] = strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			out[key] = strconv.FormatBool(x)
		case nil:
		default:
			if b, err := json.Marshal(x); err == nil {
				out[key] = string(b)
			}
		}
	}
}

// formKey turns bracket notation into dotted keys: a[b][c] -> a.b.c.
func formKey(k string) string {
	if !strings.Contains(k, "[") {
		return k
	}
	k = strings.ReplaceAll(k, "][", ".")
	k = strings.ReplaceAll(k, "[", ".")
	return strings.TrimSuffix(k, "]")
}

func readMultipart(r *http.Request, maxBytes int64) (domain.SignupForm, *usecase.Upload, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, domain.Validation("Request body is too large")
		}
		return nil, nil, domain.Validation("Invalid multipart form")
	}
	form := domain.SignupForm{}
	for k, vals := range r.MultipartForm.Value {
		if len(vals) > 0 {
			form[formKey(k)] = vals[0]
		}
	}

	file, header, err := r.FormFile(profileImageField)
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil, nil
	}
	if err != nil {
		return nil, nil, domain.Validation("Invalid profile image")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, nil, domain.Validation("Invalid profile image")
	}
	if int64(len(data)) > maxBytes {
		return nil, nil, domain.Validation("Profile image is too large")
	}
	if len(data) == 0 {
		return form, nil, nil
	}
	return form, &usecase.Upload{Filename: header.Filename, Data: data}, nil
}
