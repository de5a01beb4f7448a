package proof

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasdenH/crev/internal/digest"
	"github.com/ThomasdenH/crev/internal/id"
)

func signedTrustProof(t *testing.T) (*ProofRecord, id.Id) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	authorId, err := id.FromPublicKey(pub)
	require.NoError(t, err)

	targetPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	targetId, err := id.FromPublicKey(targetPub)
	require.NoError(t, err)

	content := Content{
		From: Endpoint{Id: authorId, URL: "https://example.com/author"},
		Date: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Trust: &TrustContent{
			Trust: id.High,
			Ids:   []Endpoint{{Id: targetId, URL: "https://example.com/target"}},
		},
	}
	rec, err := Sign(content, priv)
	require.NoError(t, err)
	return rec, authorId
}

func TestSignThenVerifySucceeds(t *testing.T) {
	rec, _ := signedTrustProof(t)
	assert.NoError(t, rec.Verify())
}

func TestVerifyFailsOnTamperedContent(t *testing.T) {
	rec, _ := signedTrustProof(t)
	rec.Content.Trust.Trust = id.Distrust
	assert.Error(t, rec.Verify())
}

func TestVerifyFailsOnTamperedSignature(t *testing.T) {
	rec, _ := signedTrustProof(t)
	rec.Signature[0] ^= 0xff
	assert.Error(t, rec.Verify())
}

func TestVerifyFailsUnderWrongAuthor(t *testing.T) {
	rec, _ := signedTrustProof(t)
	otherPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	otherId, err := id.FromPublicKey(otherPub)
	require.NoError(t, err)
	rec.Author = otherId
	assert.Error(t, rec.Verify())
}

func TestContentKindDiscriminates(t *testing.T) {
	trust := &Content{Trust: &TrustContent{}}
	assert.Equal(t, KindTrust, trust.Kind())

	pkg := &Content{Package: &PackageContent{}}
	assert.Equal(t, KindPackageReview, pkg.Kind())

	code := &Content{Code: &CodeContent{}}
	assert.Equal(t, KindCodeReview, code.Kind())
}

func TestDecodeContentRoundtripsCanonicalBytes(t *testing.T) {
	rec, _ := signedTrustProof(t)
	decoded, err := DecodeContent(rec.Bytes)
	require.NoError(t, err)
	assert.Equal(t, rec.Content.From.Id, decoded.From.Id)
	assert.Equal(t, rec.Content.Trust.Trust, decoded.Trust.Trust)
	assert.Equal(t, rec.Content.Trust.Ids[0].Id, decoded.Trust.Ids[0].Id)
}

func TestCanonicalBytesAreDeterministicPerPayload(t *testing.T) {
	rec, _ := signedTrustProof(t)
	recomputed, err := canonicalBytes(&rec.Content)
	require.NoError(t, err)
	assert.Equal(t, rec.Bytes, recomputed)
}

func TestPackageReviewRoundtrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	authorId, err := id.FromPublicKey(pub)
	require.NoError(t, err)

	d := digest.HashBytes([]byte("package contents"))
	content := Content{
		From: Endpoint{Id: authorId},
		Date: time.Now().UTC().Truncate(time.Second),
		Package: &PackageContent{
			Package: PackageInfo{Source: "crates.io", Name: "serde", Version: "1.0.0", Digest: d, DigestType: digest.Algorithm},
			Review:  Review{Rating: id.Positive},
		},
	}
	rec, err := Sign(content, priv)
	require.NoError(t, err)
	assert.NoError(t, rec.Verify())
	assert.NotEmpty(t, rec.SignatureString())
}
