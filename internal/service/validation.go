package service

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

// Field length limits, in characters.
const (
	MaxShortText   = 200
	MaxContactInfo = 500
	MaxURL         = 2048
	MaxDescription = 5000
)

// List pagination bounds. Values outside them are rejected, not clamped.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// NewListOptions validates skip/limit as received from a client.
func NewListOptions(skip, limit int) (repository.ListOptions, error) {
	if skip < 0 {
		return repository.ListOptions{}, apperror.ValidationFailed("skip", "skip must be 0 or greater")
	}
	if limit < 1 || limit > MaxListLimit {
		return repository.ListOptions{}, apperror.ValidationFailed("limit",
			fmt.Sprintf("limit must be between 1 and %d", MaxListLimit))
	}
	return repository.ListOptions{Limit: limit, Offset: skip}, nil
}

type fieldKind int

const (
	textField fieldKind = iota
	urlField
)

// fieldRule describes one writable field.
type fieldRule struct {
	name     string
	max      int
	required bool
	kind     fieldKind
}

// check trims v and validates it. A required field must be non-blank; an
// optional one may be empty.
func (r fieldRule) check(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		if r.required {
			return "", apperror.ValidationFailed(r.name, r.name+" is required")
		}
		return "", nil
	}
	if utf8.RuneCountInString(v) > r.max {
		return "", apperror.ValidationFailed(r.name,
			fmt.Sprintf("%s must be %d characters or less", r.name, r.max))
	}
	if r.kind == urlField && !validLink(v) {
		return "", apperror.ValidationFailed(r.name,
			r.name+" must be an http(s) URL or a path starting with /")
	}
	return v, nil
}

// checkPatch validates one patch field in place. Omitted stays omitted.
// Null on a required field is an error; null on an optional field clears it.
func (r fieldRule) checkPatch(o *model.Optional[string]) error {
	if !o.Set {
		return nil
	}
	if o.Null {
		if r.required {
			return apperror.ValidationFailed(r.name, r.name+" cannot be null")
		}
		return nil
	}
	v, err := r.check(o.Value)
	if err != nil {
		return err
	}
	o.Value = v
	return nil
}

// validLink accepts absolute http(s) URLs and root-relative paths such as
// the /uploads/<name> values the upload endpoint returns.
func validLink(v string) bool {
	if strings.HasPrefix(v, "/") && !strings.HasPrefix(v, "//") {
		return true
	}
	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

var errNoData = apperror.ValidationFailed("", "No data to update")
