// Package proof implements signed, timestamped statements (proofs) of one
// of three kinds: Trust, PackageReview, CodeReview. A ProofRecord bundles
// the canonical signed bytes, the signature, and the parsed content.
package proof

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/ThomasdenH/crev/internal/digest"
	crerrors "github.com/ThomasdenH/crev/internal/errors"
	"github.com/ThomasdenH/crev/internal/id"
)

// Endpoint names an identity together with the URL it was observed at,
// the shape shared by the `from` and `ids` fields of a proof.
type Endpoint struct {
	Id  id.Id  `json:"id"`
	URL string `json:"url"`
}

// Review is the common body of a PackageReview or CodeReview.
type Review struct {
	Rating        id.Rating `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	Thoroughness  id.Rating `json:"thoroughness,omitempty"`
	Understanding id.Rating `json:"understanding,omitempty"`
}

// PackageInfo identifies the package a PackageReview was made against.
type PackageInfo struct {
	Source       string        `json:"source"`
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	Digest       digest.Digest `json:"digest"`
	DigestType   string        `json:"digestType"`
	Revision     string        `json:"revision,omitempty"`
	RevisionType string        `json:"revisionType,omitempty"`
}

// FileEntry is one reviewed file within a CodeReview.
type FileEntry struct {
	Path   string        `json:"path"`
	Digest digest.Digest `json:"digest"`
}

// Kind discriminates the three Content variants.
type Kind int

const (
	KindTrust Kind = iota
	KindPackageReview
	KindCodeReview
)

// TrustContent is the body of a Trust proof.
type TrustContent struct {
	Trust id.TrustLevel `json:"trust"`
	Ids   []Endpoint    `json:"ids"`
}

// PackageContent is the body of a PackageReview proof.
type PackageContent struct {
	Package PackageInfo `json:"package"`
	Review  Review      `json:"review"`
}

// CodeContent is the body of a CodeReview proof.
type CodeContent struct {
	Files  []FileEntry `json:"files"`
	Review Review      `json:"review"`
}

// Content is the tagged union of proof bodies. Exactly one of Trust,
// Package, Code is non-nil, matching the design note's "tagged variant
// with exhaustive match at ingest" rule.
type Content struct {
	From Endpoint
	Date time.Time

	Trust   *TrustContent
	Package *PackageContent
	Code    *CodeContent
}

// Kind reports which variant is populated. Panics (precondition violation)
// if none is, since a Content value must always carry exactly one kind.
func (c *Content) Kind() Kind {
	switch {
	case c.Trust != nil:
		return KindTrust
	case c.Package != nil:
		return KindPackageReview
	case c.Code != nil:
		return KindCodeReview
	default:
		crerrors.Precondition(crerrors.CodeUnverifiedProof, "proof content has no populated variant")
		panic("unreachable")
	}
}

// wireContent is the canonical on-the-wire shape of Content: a single flat
// struct with discriminated-by-presence sub-objects, matching the
// field-level shapes in the external interfaces section. Canonicalization
// and signing operate on this shape's JSON encoding.
type wireContent struct {
	From id.Id  `json:"from"`
	URL  string `json:"url"`
	Date string `json:"date"`

	Trust   *TrustContent   `json:"trust,omitempty"`
	Package *PackageContent `json:"package,omitempty"`
	Code    *CodeContent    `json:"code,omitempty"`
}

func (c *Content) toWire() wireContent {
	return wireContent{
		From:    c.From.Id,
		URL:     c.From.URL,
		Date:    c.Date.UTC().Format(time.RFC3339),
		Trust:   c.Trust,
		Package: c.Package,
		Code:    c.Code,
	}
}

func (w wireContent) toContent() (Content, error) {
	date, err := time.Parse(time.RFC3339, w.Date)
	if err != nil {
		return Content{}, crerrors.Wrap(crerrors.CodeIO, "parse proof date", err)
	}
	return Content{
		From:    Endpoint{Id: w.From, URL: w.URL},
		Date:    date,
		Trust:   w.Trust,
		Package: w.Package,
		Code:    w.Code,
	}, nil
}

// canonicalBytes produces the deterministic byte encoding a signature is
// computed over. Go's encoding/json marshals struct fields in declaration
// order, which is stable across calls, giving a canonical encoding without
// a dedicated canonicalization library.
func canonicalBytes(c *Content) ([]byte, error) {
	b, err := json.Marshal(c.toWire())
	if err != nil {
		return nil, crerrors.Wrap(crerrors.CodeIO, "canonicalize proof content", err)
	}
	return b, nil
}

// DecodeContent parses the canonical bytes produced by canonicalBytes back
// into a Content value. This is the one place the system defines an actual
// wire format; the core itself treats proof bytes as opaque and only ever
// calls Verify on the result.
func DecodeContent(raw []byte) (Content, error) {
	var w wireContent
	if err := json.Unmarshal(raw, &w); err != nil {
		return Content{}, crerrors.Wrap(crerrors.CodeIO, "parse proof content", err)
	}
	return w.toContent()
}

// ProofRecord bundles the canonical signed bytes, the signature, and the
// parsed content of one proof.
type ProofRecord struct {
	Author    id.Id
	Signature []byte
	Bytes     []byte
	Content   Content
}

// Sign produces a ProofRecord from a freshly authored Content value and an
// already-unlocked Ed25519 private key belonging to content.From.Id.
func Sign(content Content, priv ed25519.PrivateKey) (*ProofRecord, error) {
	b, err := canonicalBytes(&content)
	if err != nil {
		return nil, err
	}
	sig := ed25519.Sign(priv, b)
	return &ProofRecord{
		Author:    content.From.Id,
		Signature: sig,
		Bytes:     b,
		Content:   content,
	}, nil
}

// Verify returns nil iff the signature is valid under the claimed author's
// Ed25519 public key and the parsed content's canonical re-encoding matches
// the signed payload bytes. A non-nil result is a CategoryEnvironmental
// error (CodeInvalidSignature); callers must never pass a record that
// fails Verify to TrustDB ingestion.
func (p *ProofRecord) Verify() error {
	recomputed, err := canonicalBytes(&p.Content)
	if err != nil {
		return err
	}
	if string(recomputed) != string(p.Bytes) {
		return crerrors.New(crerrors.CategoryEnvironmental, crerrors.CodeInvalidSignature,
			"proof content does not canonicalize to the signed payload")
	}
	if !ed25519.Verify(p.Author.PublicKey(), p.Bytes, p.Signature) {
		return crerrors.New(crerrors.CategoryEnvironmental, crerrors.CodeInvalidSignature,
			"signature is not valid under the claimed author's public key")
	}
	return nil
}

// SignatureString renders the signature in its canonical textual form, the
// write-once key TrustDB indexes package reviews by.
func (p *ProofRecord) SignatureString() string {
	return base64.RawURLEncoding.EncodeToString(p.Signature)
}
