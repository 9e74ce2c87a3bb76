package finance

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeVendor canonicalizes a free-text vendor name: Unicode NFKC
// normalization, then trimming and collapsing runs of whitespace. Vendor
// identity across invoices and expenses is established by normalized-string
// equality, not by a vendor table.
func NormalizeVendor(name string) string {
	folded := norm.NFKC.String(name)
	return strings.Join(strings.Fields(folded), " ")
}

// SameVendor reports whether two free-text vendor names identify the same
// vendor under normalization, ignoring case.
func SameVendor(a, b string) bool {
	return strings.EqualFold(NormalizeVendor(a), NormalizeVendor(b))
}
