package wire

import "errors"

var ErrInvalidStatus = errors.New("gemini: invalid status code")

// Status is a two-digit Gemini response code. The first digit is the
// category and carries the meaning; the second digit refines it.
type Status int

const (
	StatusInput          Status = 10
	StatusSensitiveInput Status = 11

	StatusSuccess Status = 20

	StatusRedirectTemporary Status = 30
	StatusRedirectPermanent Status = 31

	StatusTemporaryFailure  Status = 40
	StatusServerUnavailable Status = 41
	StatusCGIError          Status = 42
	StatusProxyError        Status = 43
	StatusSlowDown          Status = 44

	StatusPermanentFailure    Status = 50
	StatusNotFound            Status = 51
	StatusGone                Status = 52
	StatusProxyRequestRefused Status = 53
	StatusBadRequest          Status = 59

	StatusCertificateRequired      Status = 60
	StatusCertificateNotAuthorized Status = 61
	StatusCertificateNotValid      Status = 62
)

// Category returns the status class: 1 input, 2 success, 3 redirect,
// 4 temporary failure, 5 permanent failure, 6 certificate required.
func (s Status) Category() int { return int(s) / 10 }

func (s Status) IsInput() bool        { return s.Category() == 1 }
func (s Status) IsSuccess() bool      { return s.Category() == 2 }
func (s Status) IsRedirect() bool     { return s.Category() == 3 }
func (s Status) IsTempFailure() bool  { return s.Category() == 4 }
func (s Status) IsPermFailure() bool  { return s.Category() == 5 }
func (s Status) IsCertRequired() bool { return s.Category() == 6 }

// IsFailure reports whether s is a temporary or permanent failure.
func (s Status) IsFailure() bool { return s.IsTempFailure() || s.IsPermFailure() }

// ParseStatus reads the two-digit code at the start of s. Both digits must
// be decimal and the value must land in the protocol's [10,69] range, which
// rejects malformed and out-of-spec codes alike.
func ParseStatus(s string) (Status, error) {
	if len(s) < 2 {
		return 0, ErrInvalidStatus
	}
	hi, lo := s[0], s[1]
	if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
		return 0, ErrInvalidStatus
	}
	code := Status(hi-'0')*10 + Status(lo-'0')
	if code < 10 || code > 69 {
		return 0, ErrInvalidStatus
	}
	return code, nil
}
