package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/google/uuid"
)

// Input carries the replaceable fields of a memory. Create and Update take
// the same shape; Update replaces every field, so an omitted isPublic
// reverts to false.
type Input struct {
	Content   string    `json:"content"`
	CoverURL  string    `json:"coverUrl"`
	CoverType CoverType `json:"coverType"`
	IsPublic  bool      `json:"isPublic"`

	// contentMissing is set when a decoded body has no content field.
	// Empty content is allowed; an absent field is not.
	contentMissing bool
}

// UnmarshalJSON decodes a request body. Type mismatches are reported as a
// *ValidationError, and isPublic accepts booleans, "true"/"false" style
// strings, numbers and null.
func (in *Input) UnmarshalJSON(data []byte) error {
	var raw struct {
		Content   *string         `json:"content"`
		CoverURL  *string         `json:"coverUrl"`
		CoverType *string         `json:"coverType"`
		IsPublic  json.RawMessage `json:"isPublic"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return invalid(typeErr.Field, "expected "+typeErr.Type.String())
		}
		return err
	}

	var out Input
	if raw.Content != nil {
		out.Content = *raw.Content
	} else {
		out.contentMissing = true
	}
	if raw.CoverURL != nil {
		out.CoverURL = *raw.CoverURL
	}
	if raw.CoverType != nil {
		out.CoverType = CoverType(*raw.CoverType)
	}
	public, err := coerceBool(raw.IsPublic)
	if err != nil {
		return invalid("isPublic", err.Error())
	}
	out.IsPublic = public

	*in = out
	return nil
}

func coerceBool(raw json.RawMessage) (bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, err
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case string:
		if t == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, errors.New("expected boolean")
		}
		return b, nil
	default:
		return false, errors.New("expected boolean")
	}
}

// Validate checks required fields and the cover type. Content may be
// empty but must be present; coverUrl must be non-empty since the cover
// asset it names is retained for the life of the memory.
func (in Input) Validate() error {
	var issues []Issue
	if in.contentMissing {
		issues = append(issues, Issue{Field: "content", Message: "required"})
	}
	if in.CoverURL == "" {
		issues = append(issues, Issue{Field: "coverUrl", Message: "required"})
	}
	if !in.CoverType.Valid() {
		issues = append(issues, Issue{Field: "coverType", Message: "must be one of " + coverTypeList()})
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// ValidateID checks that id is a canonical hyphenated UUID.
func ValidateID(id string) error {
	if len(id) != 36 {
		return invalid("id", "must be a uuid")
	}
	if _, err := uuid.Parse(id); err != nil {
		return invalid("id", "must be a uuid")
	}
	return nil
}
