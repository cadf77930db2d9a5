package services

import (
	"fmt"
	"strconv"
)

const (
	invoicePrefix = "INV-"
	invoiceWidth  = 5
)

// nextInvoiceNumber derives the next invoice token from the most recently
// issued one: parse the trailing numeric suffix, increment, zero-pad. An
// empty or unparsable latest starts the sequence at 1.
func nextInvoiceNumber(latest string) string {
	next := 1
	if suffix := trailingDigits(latest); suffix != "" {
		if n, err := strconv.Atoi(suffix); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%0*d", invoicePrefix, invoiceWidth, next)
}

func trailingDigits(s string) string {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[i:]
}
