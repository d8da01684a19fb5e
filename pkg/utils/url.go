package utils

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMalformedPath = errors.New("malformed asset path")

	uriIllegalChars = regexp.MustCompile(`[^a-zA-Z0-9:/?#\[\]@!$&'()*+,;=.\-_~%]`)
	uriBadEscape    = regexp.MustCompile(`%(?:[^0-9a-fA-F]|[0-9a-fA-F][^0-9a-fA-F]|[0-9a-fA-F]?$)`)
)

// IsURI reports whether str is a well formed absolute uri
func IsURI(str string) bool {
	if str == "" || uriIllegalChars.MatchString(str) || uriBadEscape.MatchString(str) {
		return false
	}
	u, err := url.Parse(str)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != "" || u.Path != ""
}

// IsValidURL reports whether str is an absolute http(s) url with a host
func IsValidURL(str string) bool {
	if !IsURI(str) {
		return false
	}
	u, err := url.Parse(str)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// AbsoluteURL leaves absolute uris untouched and prefixes everything else
// with host
func AbsoluteURL(host, path string) (string, error) {
	if IsURI(path) {
		return path, nil
	}
	abs := strings.TrimRight(host, "/") + "/" + strings.TrimLeft(path, "/")
	if !IsValidURL(abs) {
		return "", errors.Wrapf(ErrMalformedPath, "%q", path)
	}
	return abs, nil
}
