package service

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

const (
	orderCodePrefix = "HTX"
	orderCodeMin    = 10000
	orderCodeSpan   = 90000
)

// legacyOrderCodePattern also matches the older timestamp-based codes that
// bank transfer descriptions still carry.
var legacyOrderCodePattern = regexp.MustCompile(`(?i)HTX\s?\d{5,13}`)

// CodeGenerator produces candidate order numbers
type CodeGenerator func() string

// RandomOrderCode returns HTX followed by five digits, the first non-zero
func RandomOrderCode() string {
	return fmt.Sprintf("%s%d", orderCodePrefix, orderCodeMin+rand.Intn(orderCodeSpan))
}

// NormalizeOrderCode trims and upper-cases a code echoed back by a client
func NormalizeOrderCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ExtractOrderCode finds an order code inside free text such as a bank
// transfer description. It returns "" when nothing matches.
func ExtractOrderCode(content string) string {
	match := legacyOrderCodePattern.FindString(content)
	if match == "" {
		return ""
	}
	return strings.ReplaceAll(NormalizeOrderCode(match), " ", "")
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
