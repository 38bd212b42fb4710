package handler

import (
	"errors"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/SARVESHVARADKAR123/RealChat/internal/transport"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// formBinder fills a request struct from url-encoded values.
type formBinder interface {
	bindForm(values url.Values)
}

// bind accepts a JSON body or form values, then validates the result.
// It writes the error response itself and reports whether to continue.
func bind(w http.ResponseWriter, r *http.Request, dst formBinder) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			transport.WriteError(w, http.StatusBadRequest, transport.CodeInvalidBody, "invalid json")
			return false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			transport.WriteError(w, http.StatusBadRequest, transport.CodeInvalidBody, "invalid form body")
			return false
		}
		dst.bindForm(r.Form)
	}

	if err := validate.Struct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "ConversationID" {
				transport.WriteError(w, http.StatusBadRequest, transport.CodeMissingConversationID, "conversation_id is required")
				return
			}
		}
	}
	transport.WriteError(w, http.StatusBadRequest, transport.CodeInvalidInput, err.Error())
}

// tokenString renders a decoded JSON scalar in the boolean token vocabulary.
func tokenString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return ""
	}
}
