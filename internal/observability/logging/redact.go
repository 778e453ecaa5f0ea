package logging

import (
	"net/url"
	"regexp"
)

var (
	// userinfo password inside a URL-style DSN
	dsnPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)

	// key=value style DSN password
	kvPasswordPattern = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`)
)

// SanitizeError returns the error message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return sanitize(err.Error())
}

// RedactDSN masks the password of a database or cache connection string so it
// can be logged. Both URL and key=value forms are handled.
func RedactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			return u.Redacted()
		}
		return dsn
	}
	return sanitize(dsn)
}

func sanitize(msg string) string {
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return kvPasswordPattern.ReplaceAllString(msg, "${1}****")
}
