// Package verify implements the three-valued digest verification outcome:
// Verified, Flagged, or Unknown, derived from the intersection of a
// digest's reviewers with a caller-supplied trusted identity set.
package verify

import (
	"github.com/ThomasdenH/crev/internal/digest"
	"github.com/ThomasdenH/crev/internal/id"
	"github.com/ThomasdenH/crev/internal/proof"
)

// Status is the three-valued verification outcome. It is an ordinary
// return value, not an error (spec error-handling design, kind 3).
type Status int

const (
	Unknown Status = iota
	Verified
	Flagged
)

func (s Status) String() string {
	switch s {
	case Verified:
		return "verified"
	case Flagged:
		return "flagged"
	default:
		return "unknown"
	}
}

// ReviewSource is the read-only view of TrustDB's reviewer lookup
// DigestVerifier needs.
type ReviewSource interface {
	Reviewers(d digest.Digest) map[id.Id]proof.Review
}

// VerifyDigest classifies d given the trusted identity set trustedIds.
// Flagged dominates Verified unconditionally: any trusted reviewer who
// rated the digest negative forces Flagged even if positive reviews
// outnumber negative ones.
func VerifyDigest(db ReviewSource, d digest.Digest, trustedIds map[id.Id]struct{}) Status {
	reviewers := db.Reviewers(d)
	if len(reviewers) == 0 {
		return Unknown
	}

	var distrustCount, trustCount int
	for reviewer, review := range reviewers {
		if _, trusted := trustedIds[reviewer]; !trusted {
			continue
		}
		if review.Rating.IsNegative() {
			distrustCount++
		} else {
			trustCount++
		}
	}

	switch {
	case distrustCount > 0:
		return Flagged
	case trustCount > 0:
		return Verified
	default:
		return Unknown
	}
}
