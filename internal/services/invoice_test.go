package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextInvoiceNumber(t *testing.T) {
	cases := []struct {
		latest string
		want   string
	}{
		{"", "INV-00001"},
		{"INV-00001", "INV-00002"},
		{"INV-00099", "INV-00100"},
		{"INV-99999", "INV-100000"},
		{"garbage", "INV-00001"},
		{"SALE-7", "INV-00008"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, nextInvoiceNumber(tc.latest), "latest=%q", tc.latest)
	}
}
