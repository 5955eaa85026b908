//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Endpoint definition.
//

package udpcore

// EndPoint identifies a network peer.
//
// Middleware treats endpoints as opaque, comparable keys and must not
// depend on how they represent addresses. Implementations should be
// comparable with == so that they can be used as map keys.
type EndPoint interface {
	// Equal returns whether two endpoints identify the same peer.
	Equal(other EndPoint) bool

	// Hash returns a hash consistent with Equal.
	Hash() uint64

	// String returns a human readable representation.
	String() string

	// Copy returns an independent copy that remains valid
	// regardless of what happens to the original.
	Copy() EndPoint
}

// IPEndPoint is the [EndPoint] wrapping an [Address].
//
// IPEndPoint is a value type; copying it copies the address.
type IPEndPoint struct {
	// Address is the wrapped address.
	Address Address
}

var _ EndPoint = IPEndPoint{}

// NewEndPoint creates an [IPEndPoint] from an IP literal and a port.
//
// The returned error wraps [ErrInvalidAddress].
func NewEndPoint(host string, port uint16) (IPEndPoint, error) {
	addr, err := NewAddress(host, port)
	if err != nil {
		return IPEndPoint{}, err
	}
	return IPEndPoint{addr}, nil
}

// Equal implements [EndPoint].
func (ep IPEndPoint) Equal(other EndPoint) bool {
	switch other := other.(type) {
	case IPEndPoint:
		return ep.Address.Equal(other.Address)
	case *IPEndPoint:
		return other != nil && ep.Address.Equal(other.Address)
	default:
		return false
	}
}

// Hash implements [EndPoint].
func (ep IPEndPoint) Hash() uint64 {
	return ep.Address.Hash()
}

// String implements [EndPoint].
func (ep IPEndPoint) String() string {
	return ep.Address.String()
}

// Copy implements [EndPoint].
func (ep IPEndPoint) Copy() EndPoint {
	return IPEndPoint{ep.Address}
}

// addressOf extracts the [Address] from an [EndPoint] created by
// this package. It returns false for foreign implementations.
func addressOf(ep EndPoint) (Address, bool) {
	switch ep := ep.(type) {
	case IPEndPoint:
		return ep.Address, ep.Address.IsValid()
	case *IPEndPoint:
		if ep == nil {
			return Address{}, false
		}
		return ep.Address, ep.Address.IsValid()
	default:
		return Address{}, false
	}
}
