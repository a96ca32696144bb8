package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"reflect"
	"strings"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"newsroom/internal/middleware"
	"newsroom/internal/utils"
)

const maxJSONBody = 1 << 20

// ask sends msg to pid and waits for a reply of type T or an *utils.AppError.
func ask[T any](s *Server, pid *actor.PID, msg interface{}) (T, error) {
	var zero T
	result, err := s.Context.RequestFuture(pid, msg, s.RequestTimeout).Result()
	if err != nil {
		return zero, utils.NewActorTimeoutError(fmt.Sprintf("%T", msg))
	}
	if appErr, ok := result.(*utils.AppError); ok {
		return zero, appErr
	}
	v, ok := result.(T)
	if !ok {
		return zero, utils.NewAppError(utils.ErrMessageRejected, fmt.Sprintf("unexpected reply %T", result), nil)
	}
	return v, nil
}

func respond(w http.ResponseWriter, status int, v interface{}) {
	middleware.WriteJSON(w, status, v)
}

func respondError(w http.ResponseWriter, err error) {
	middleware.WriteError(w, err)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields,
// then runs the struct's validate tags.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return utils.NewAppError(utils.ErrPayloadTooLarge, "Request body too large", err)
		case errors.Is(err, io.EOF):
			return utils.NewInvalidInputError("Request body is required")
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			return utils.NewInvalidInputError("Unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field "))
		}
		return utils.NewAppError(utils.ErrInvalidInput, "Invalid JSON body", err)
	}
	if dec.More() {
		return utils.NewInvalidInputError("Request body must be a single JSON object")
	}
	return s.validateStruct(dst)
}

func (s *Server) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return utils.NewAppError(utils.ErrInvalidInput, validationMessage(fe), err)
	}
	return utils.NewAppError(utils.ErrInvalidInput, "Invalid request", err)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

// pathID parses the named path wildcard as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, utils.NewInvalidInputError("Invalid " + name)
	}
	return id, nil
}

// optionalID parses an optional UUID string, treating "" as unset.
func optionalID(raw, field string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, utils.NewInvalidInputError("Invalid " + field)
	}
	return &id, nil
}

// clientAddr identifies the viewer behind r. Forwarding headers are only
// read when the peer is a trusted proxy; X-Forwarded-For is then walked from
// the right and the first hop outside the trusted set wins.
func clientAddr(r *http.Request, trusted []netip.Prefix) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !isTrusted(peer, trusted) {
		return peer
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !isTrusted(hop, trusted) {
				return hop
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return peer
}

func isTrusted(raw string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// splitTags accepts repeated form values and comma separated lists.
func splitTags(values []string) []string {
	var out []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
