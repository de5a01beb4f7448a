// Package id defines the identity and ordered-enumeration types shared
// across the trust database: public-key identities, trust levels, and
// review ratings.
package id

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
)

// Id is an opaque identity fingerprint: the raw bytes of an Ed25519 public
// key. Equality and ordering are bytewise, matching the data model's
// requirement that identities compare as byte strings.
type Id [ed25519.PublicKeySize]byte

// FromPublicKey builds an Id from a raw Ed25519 public key.
func FromPublicKey(pub ed25519.PublicKey) (Id, error) {
	var out Id
	if len(pub) != ed25519.PublicKeySize {
		return out, fmt.Errorf("id: invalid public key length %d, want %d", len(pub), ed25519.PublicKeySize)
	}
	copy(out[:], pub)
	return out, nil
}

// PublicKey returns the Id as an ed25519.PublicKey.
func (i Id) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(i[:])
}

// Bytes returns the raw identity bytes.
func (i Id) Bytes() []byte {
	return i[:]
}

// String renders the Id as unpadded base64, the canonical textual form
// used in proof files and CLI output.
func (i Id) String() string {
	return base64.RawURLEncoding.EncodeToString(i[:])
}

// Parse decodes an Id from its base64 textual form.
func Parse(s string) (Id, error) {
	var out Id
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("id: invalid encoding: %w", err)
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("id: invalid length %d, want %d", len(raw), len(out))
	}
	copy(out[:], raw)
	return out, nil
}

// Compare orders two Ids bytewise, giving the deterministic tie-break used
// by the trust-set resolver's frontier.
func Compare(a, b Id) int {
	return bytes.Compare(a[:], b[:])
}

// Less reports whether a sorts strictly before b.
func Less(a, b Id) bool {
	return Compare(a, b) < 0
}

// TrustLevel is a totally ordered trust assertion. Distrust and None are
// sentinels that do not propagate trust during traversal.
type TrustLevel int

const (
	Distrust TrustLevel = iota
	None
	Low
	Medium
	High
)

// String renders the trust level the way it appears in proof files.
func (t TrustLevel) String() string {
	switch t {
	case Distrust:
		return "distrust"
	case None:
		return "none"
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return fmt.Sprintf("trustlevel(%d)", int(t))
	}
}

// ParseTrustLevel parses the textual form of a TrustLevel.
func ParseTrustLevel(s string) (TrustLevel, error) {
	switch s {
	case "distrust":
		return Distrust, nil
	case "none":
		return None, nil
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	default:
		return 0, fmt.Errorf("id: unknown trust level %q", s)
	}
}

// Rating is a totally ordered review polarity, from strongly negative
// through Neutral to strongly positive.
type Rating int

const (
	StronglyNegative Rating = -2
	Negative         Rating = -1
	Neutral          Rating = 0
	Positive         Rating = 1
	StronglyPositive Rating = 2
)

// String renders the rating the way it appears in proof files.
func (r Rating) String() string {
	switch r {
	case StronglyNegative:
		return "strongly_negative"
	case Negative:
		return "negative"
	case Neutral:
		return "neutral"
	case Positive:
		return "positive"
	case StronglyPositive:
		return "strongly_positive"
	default:
		return fmt.Sprintf("rating(%d)", int(r))
	}
}

// ParseRating parses the textual form of a Rating.
func ParseRating(s string) (Rating, error) {
	switch s {
	case "strongly_negative":
		return StronglyNegative, nil
	case "negative":
		return Negative, nil
	case "neutral":
		return Neutral, nil
	case "positive":
		return Positive, nil
	case "strongly_positive":
		return StronglyPositive, nil
	default:
		return 0, fmt.Errorf("id: unknown rating %q", s)
	}
}

// IsNegative reports whether the rating is below Neutral, the threshold
// DigestVerifier uses to split positive-or-neutral from negative reviews.
func (r Rating) IsNegative() bool {
	return r < Neutral
}
