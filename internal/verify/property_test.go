package verify

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/ThomasdenH/crev/internal/digest"
	"github.com/ThomasdenH/crev/internal/id"
	"github.com/ThomasdenH/crev/internal/proof"
)

// TestPropertyFlagDominatesRegardlessOfPositiveCount checks invariant I7:
// as long as at least one trusted reviewer rates a digest negatively, the
// outcome is Flagged, no matter how many other trusted reviewers rate it
// positively.
func TestPropertyFlagDominatesRegardlessOfPositiveCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := digest.HashBytes([]byte(rapid.StringN(1, 32, -1).Draw(t, "content")))

		nPositive := rapid.IntRange(0, 10).Draw(t, "nPositive")
		reviewers := make(map[id.Id]proof.Review)
		trusted := make(map[id.Id]struct{})

		for i := 0; i < nPositive; i++ {
			var rid id.Id
			rid[0] = byte(i + 1)
			reviewers[rid] = proof.Review{Rating: id.Positive}
			trusted[rid] = struct{}{}
		}

		var flagger id.Id
		flagger[0] = byte(200)
		negRating := rapid.SampledFrom([]id.Rating{id.Negative, id.StronglyNegative}).Draw(t, "negRating")
		reviewers[flagger] = proof.Review{Rating: negRating}
		trusted[flagger] = struct{}{}

		db := fakeReviewSource{d: reviewers}
		status := VerifyDigest(db, d, trusted)
		if status != Flagged {
			t.Fatalf("expected Flagged with %d positive trusted reviews and one negative, got %v", nPositive, status)
		}
	})
}
