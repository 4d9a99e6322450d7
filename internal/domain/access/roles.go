package access

import (
	"errors"
	"fmt"
)

var (
	ErrZeroAddress    = errors.New("zero address is not allowed")
	ErrInvalidFeeRate = errors.New("platform fee rate exceeds basis point scale")
)

// BasisPoints is the fixed-point scale used for fee rates: 10000 = 100%.
const BasisPoints = 10_000

// Roles holds the platform role configuration: the single owner, the single
// oracle, the platform fee recipient and rate, and the admin roster.
//
// Roles is a value type. Mutating operations validate their input and return
// a new Roles; the caller decides when to swap the live configuration.
type Roles struct {
	Owner              Address
	Oracle             Address
	PlatformFeeAddress Address
	PlatformFeeRateBps uint32

	adminActive map[Address]bool
	// adminRoster keeps every address ever granted admin, in grant order.
	// Revoked entries are zeroed in place, never compacted, so positional
	// lookups stay stable.
	adminRoster []Address
}

func NewRoles(owner, oracle, platformFee Address, feeRateBps uint32) (Roles, error) {
	if owner.IsZero() {
		return Roles{}, fmt.Errorf("%w: owner", ErrZeroAddress)
	}
	if oracle.IsZero() {
		return Roles{}, fmt.Errorf("%w: oracle", ErrZeroAddress)
	}
	if platformFee.IsZero() {
		return Roles{}, fmt.Errorf("%w: platform fee address", ErrZeroAddress)
	}
	if feeRateBps > BasisPoints {
		return Roles{}, fmt.Errorf("%w: %d", ErrInvalidFeeRate, feeRateBps)
	}

	return Roles{
		Owner:              owner,
		Oracle:             oracle,
		PlatformFeeAddress: platformFee,
		PlatformFeeRateBps: feeRateBps,
	}, nil
}

func (r Roles) IsOwner(caller Address) bool {
	return !caller.IsZero() && caller == r.Owner
}

func (r Roles) IsOracle(caller Address) bool {
	return !caller.IsZero() && caller == r.Oracle
}

func (r Roles) IsActiveAdmin(caller Address) bool {
	if caller.IsZero() {
		return false
	}
	return r.adminActive[caller]
}

// WithOwner transfers ownership. The null identity can never become owner.
func (r Roles) WithOwner(newOwner Address) (Roles, error) {
	if newOwner.IsZero() {
		return Roles{}, fmt.Errorf("%w: new owner", ErrZeroAddress)
	}
	out := r.clone()
	out.Owner = newOwner
	return out, nil
}

func (r Roles) WithOracle(newOracle Address) (Roles, error) {
	if newOracle.IsZero() {
		return Roles{}, fmt.Errorf("%w: new oracle", ErrZeroAddress)
	}
	out := r.clone()
	out.Oracle = newOracle
	return out, nil
}

func (r Roles) WithPlatformFeeAddress(addr Address) (Roles, error) {
	if addr.IsZero() {
		return Roles{}, fmt.Errorf("%w: platform fee address", ErrZeroAddress)
	}
	out := r.clone()
	out.PlatformFeeAddress = addr
	return out, nil
}

func (r Roles) WithPlatformFeeRate(rateBps uint32) (Roles, error) {
	if rateBps > BasisPoints {
		return Roles{}, fmt.Errorf("%w: %d", ErrInvalidFeeRate, rateBps)
	}
	out := r.clone()
	out.PlatformFeeRateBps = rateBps
	return out, nil
}

// WithAdmin grants admin to addr. A re-grant after revocation reactivates the
// flag and appends a fresh roster entry, matching the append-only roster
// contract.
func (r Roles) WithAdmin(addr Address) (Roles, error) {
	if addr.IsZero() {
		return Roles{}, fmt.Errorf("%w: admin", ErrZeroAddress)
	}
	out := r.clone()
	if out.adminActive == nil {
		out.adminActive = make(map[Address]bool)
	}
	if !out.adminActive[addr] {
		out.adminRoster = append(out.adminRoster, addr)
	}
	out.adminActive[addr] = true
	return out, nil
}

// WithoutAdmin revokes admin from addr. The roster entry is zeroed in place,
// not removed.
func (r Roles) WithoutAdmin(addr Address) (Roles, error) {
	if addr.IsZero() {
		return Roles{}, fmt.Errorf("%w: admin", ErrZeroAddress)
	}
	out := r.clone()
	if out.adminActive[addr] {
		delete(out.adminActive, addr)
		for i, entry := range out.adminRoster {
			if entry == addr {
				out.adminRoster[i] = ZeroAddress
			}
		}
	}
	return out, nil
}

// ActiveAdmins returns the active roster in grant order, skipping zeroed
// entries.
func (r Roles) ActiveAdmins() []Address {
	out := make([]Address, 0, len(r.adminActive))
	for _, entry := range r.adminRoster {
		if entry.IsZero() {
			continue
		}
		if r.adminActive[entry] {
			out = append(out, entry)
		}
	}
	return out
}

// AdminRoster returns the raw append-only roster including zeroed slots.
func (r Roles) AdminRoster() []Address {
	return append([]Address(nil), r.adminRoster...)
}

func (r Roles) clone() Roles {
	out := r
	out.adminActive = make(map[Address]bool, len(r.adminActive))
	for addr, active := range r.adminActive {
		out.adminActive[addr] = active
	}
	out.adminRoster = append([]Address(nil), r.adminRoster...)
	return out
}
