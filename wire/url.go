package wire

import (
	"errors"
	"strconv"
	"strings"
)

const (
	// DefaultPort is the registered Gemini port.
	DefaultPort = 1965

	// MaxURLLen is the longest request URL the protocol allows, in bytes,
	// not counting the line terminator.
	MaxURLLen = 1024
)

var (
	ErrURLTooLong      = errors.New("gemini: url longer than 1024 bytes")
	ErrMissingScheme   = errors.New("gemini: url has no scheme separator")
	ErrWrongScheme     = errors.New("gemini: url scheme is not gemini")
	ErrMissingHost     = errors.New("gemini: url has no host")
	ErrUnclosedBracket = errors.New("gemini: unclosed bracket in ipv6 host")
	ErrInvalidPort     = errors.New("gemini: invalid port")
)

// URL is a parsed gemini:// URL. The scheme is implicit, Path is never empty
// and Port carries the default when the URL named none. The zero value is not
// valid; build URLs through ParseURL or Combine.
type URL struct {
	Host     string // hostname or IP literal, IPv6 without brackets
	Port     int
	Path     string
	RawQuery string
}

// ParseURL parses raw as an absolute gemini:// URL.
func ParseURL(raw string) (URL, error) {
	var u URL

	if len(raw) > MaxURLLen {
		return u, ErrURLTooLong
	}
	sep := strings.Index(raw, "://")
	if sep < 0 {
		return u, ErrMissingScheme
	}
	if !strings.EqualFold(raw[:sep], "gemini") {
		return u, ErrWrongScheme
	}
	rest := raw[sep+3:]

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return u, ErrUnclosedBracket
		}
		u.Host = rest[1:end]
		rest = rest[end+1:]
		// Only a port, path or query may follow the bracket.
		if rest != "" && rest[0] != ':' && rest[0] != '/' && rest[0] != '?' {
			return URL{}, ErrUnclosedBracket
		}
	} else {
		end := strings.IndexAny(rest, ":/?")
		if end < 0 {
			end = len(rest)
		}
		u.Host = rest[:end]
		rest = rest[end:]
	}
	if u.Host == "" {
		return u, ErrMissingHost
	}

	u.Port = DefaultPort
	if strings.HasPrefix(rest, ":") {
		end := strings.IndexAny(rest[1:], "/?")
		var portPart string
		if end < 0 {
			portPart, rest = rest[1:], ""
		} else {
			portPart, rest = rest[1:1+end], rest[1+end:]
		}
		port, err := strconv.Atoi(portPart)
		if err != nil || port < 1 || port > 65535 {
			return u, ErrInvalidPort
		}
		u.Port = port
	}

	u.Path = rest
	if q := strings.IndexByte(rest, '?'); q >= 0 {
		u.Path, u.RawQuery = rest[:q], rest[q+1:]
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

// IsValid reports whether u has the shape a request line may carry: a host
// and a port in range.
func (u URL) IsValid() bool {
	return u.Host != "" && u.Port >= 1 && u.Port <= 65535
}

// String renders the canonical form: gemini://host[:port]path[?query], with
// the port omitted when it is the default.
func (u URL) String() string {
	var b strings.Builder
	b.WriteString("gemini://")
	if strings.Contains(u.Host, ":") {
		b.WriteByte('[')
		b.WriteString(u.Host)
		b.WriteByte(']')
	} else {
		b.WriteString(u.Host)
	}
	if u.Port != 0 && u.Port != DefaultPort {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(u.Port))
	}
	if u.Path == "" {
		b.WriteByte('/')
	} else {
		b.WriteString(u.Path)
	}
	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	return b.String()
}

// Combine resolves a redirect target against the URL that produced it.
// Absolute targets are parsed as-is; anything else is taken relative to base:
// a leading slash replaces the whole path, an empty target keeps base's path
// (query-only redirect), and any other target resolves against base's path
// directory with dot segments normalized.
func Combine(base URL, target string) (URL, error) {
	if len(target) >= 9 && strings.EqualFold(target[:9], "gemini://") {
		return ParseURL(target)
	}

	u := base
	u.RawQuery = ""
	rest := target
	if q := strings.IndexByte(rest, '?'); q >= 0 {
		u.RawQuery = rest[q+1:]
		rest = rest[:q]
	}

	switch {
	case strings.HasPrefix(rest, "/"):
		u.Path = rest
	case rest == "":
		u.Path = base.Path
	default:
		dir := base.Path[:strings.LastIndexByte(base.Path, '/')+1]
		u.Path = normalizePath(dir + rest)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

// normalizePath collapses "." and ".." segments. A ".." at the root is
// dropped rather than rejected, and a trailing slash survives normalization.
func normalizePath(p string) string {
	trailing := strings.HasSuffix(p, "/")
	var stack []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	out := "/" + strings.Join(stack, "/")
	if trailing && out != "/" {
		out += "/"
	}
	return out
}
