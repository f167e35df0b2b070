// Package validation holds the pure field checks run before any request is issued.
//
// Every check returns nil or a *request.NetworkError of kind Validation whose message is
// shown to the user verbatim.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/arabah/arabah/request"
)

// Messages returned by the checks in this package.
const (
	MsgNameRequired        = "name required"
	MsgEmailRequired       = "email required"
	MsgInvalidEmail        = "invalid email"
	MsgCountryCodeRequired = "country code required"
	MsgInvalidCountryCode  = "invalid country code"
	MsgPhoneRequired       = "phone number required"
	MsgInvalidPhone        = "invalid phone number"
	MsgOTPRequired         = "otp required"
	MsgInvalidOTP          = "invalid otp"
	MsgInvalidRating       = "rating must be between 1 and 5"
)

// OTPLength is the number of digits in a verification code.
const OTPLength = 4

var (
	emailPattern       = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	countryCodePattern = regexp.MustCompile(`^\+[1-9][0-9]{0,3}$`)
	phonePattern       = regexp.MustCompile(`^[0-9]{6,15}$`)
	otpPattern         = regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, OTPLength))
)

func fail(msg string) error {
	return request.NewValidationError(msg)
}

// Name rejects blank names.
func Name(name string) error {
	if strings.TrimSpace(name) == "" {
		return fail(MsgNameRequired)
	}
	return nil
}

// Email rejects blank or malformed addresses.
func Email(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fail(MsgEmailRequired)
	}
	if !emailPattern.MatchString(email) {
		return fail(MsgInvalidEmail)
	}
	return nil
}

// Phone checks a country dialling code such as "+966" and a subscriber number of
// 6 to 15 digits.
func Phone(countryCode, number string) error {
	countryCode = strings.TrimSpace(countryCode)
	number = strings.TrimSpace(number)

	if countryCode == "" {
		return fail(MsgCountryCodeRequired)
	}
	if !countryCodePattern.MatchString(countryCode) {
		return fail(MsgInvalidCountryCode)
	}
	if number == "" {
		return fail(MsgPhoneRequired)
	}
	if !phonePattern.MatchString(number) {
		return fail(MsgInvalidPhone)
	}
	return nil
}

// Message checks that a free-text field holds between min and max characters once
// trimmed. field names the input in the returned message.
func Message(field, msg string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(msg))
	switch {
	case n == 0:
		return fail(field + " required")
	case n < min:
		return fail(fmt.Sprintf("%s must be at least %d characters", field, min))
	case max > 0 && n > max:
		return fail(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}

// OTP checks a verification code.
func OTP(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fail(MsgOTPRequired)
	}
	if !otpPattern.MatchString(code) {
		return fail(MsgInvalidOTP)
	}
	return nil
}

// Rating accepts whole-star ratings from 1 to 5.
func Rating(rating int) error {
	if rating < 1 || rating > 5 {
		return fail(MsgInvalidRating)
	}
	return nil
}

// ID rejects an empty identifier.
func ID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return fail(field + " required")
	}
	return nil
}

// All returns the first non-nil error.
func All(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
