package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/networkrad/internal/constants"
)

var (
	// phoneRegex allows digits, spaces and the usual separators, with an optional leading +
	phoneRegex = regexp.MustCompile(`^\+?[0-9 ().-]{3,}$`)
)

// ValidateFullName validates a display name. Empty means "keep current".
func ValidateFullName(name string) error {
	if utf8.RuneCountInString(name) > constants.MaxFullNameLength {
		return fmt.Errorf("full name must be %d characters or less", constants.MaxFullNameLength)
	}
	if hasControlChars(name) {
		return errors.New("full name cannot contain control characters")
	}
	return nil
}

// ValidatePhone validates an optional phone number
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if len(phone) > constants.MaxPhoneLength {
		return fmt.Errorf("phone must be %d characters or less", constants.MaxPhoneLength)
	}
	if !phoneRegex.MatchString(phone) {
		return errors.New("phone may only contain digits, spaces, and + ( ) - .")
	}
	return nil
}

// ValidateAddress validates an optional postal address
func ValidateAddress(address string) error {
	if utf8.RuneCountInString(address) > constants.MaxAddressLength {
		return fmt.Errorf("address must be %d characters or less", constants.MaxAddressLength)
	}
	if hasControlChars(strings.ReplaceAll(address, "\n", "")) {
		return errors.New("address cannot contain control characters")
	}
	return nil
}

// ValidateBio validates an optional free-form bio
func ValidateBio(bio string) error {
	// Bio is optional, but if provided should have reasonable length
	if utf8.RuneCountInString(bio) > constants.MaxBioLength {
		return fmt.Errorf("bio must be %d characters or less", constants.MaxBioLength)
	}
	return nil
}

func hasControlChars(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}
