package access

import "strings"

// Address is an authenticated caller identity as reported by the account
// gateway. The empty string is the null identity and is never a valid
// principal, recipient, or message author.
type Address string

// ZeroAddress is the null identity.
const ZeroAddress Address = ""

func (a Address) IsZero() bool {
	return strings.TrimSpace(string(a)) == ""
}

func (a Address) String() string {
	return string(a)
}

// Normalize canonicalizes an address for map keys and comparisons.
func Normalize(raw string) Address {
	return Address(strings.ToLower(strings.TrimSpace(raw)))
}

// Principal is the verified identity attached to an operation.
type Principal struct {
	Address Address
	Email   string
}
