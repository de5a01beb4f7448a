//go:build e2e

package e2e

import (
	"context"
	"crypto/ed25519"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ThomasdenH/crev/internal/digest"
	"github.com/ThomasdenH/crev/internal/id"
	"github.com/ThomasdenH/crev/internal/proof"
	"github.com/ThomasdenH/crev/internal/trustdb"
	"github.com/ThomasdenH/crev/internal/trustset"
	"github.com/ThomasdenH/crev/internal/verify"
)

func genIdentity() (id.Id, ed25519.PrivateKey) {
	pub, priv, err := ed25519.GenerateKey(nil)
	Expect(err).NotTo(HaveOccurred())
	i, err := id.FromPublicKey(pub)
	Expect(err).NotTo(HaveOccurred())
	return i, priv
}

func signAndPublish(store *memoryStore, content proof.Content, priv ed25519.PrivateKey) *proof.ProofRecord {
	rec, err := proof.Sign(content, priv)
	Expect(err).NotTo(HaveOccurred())
	Expect(store.Publish(context.Background(), rec)).To(Succeed())
	return rec
}

func ingestionTests() {
	var (
		store       *memoryStore
		root, a, b  id.Id
		rootPriv    ed25519.PrivateKey
		aPriv       ed25519.PrivateKey
		bPriv       ed25519.PrivateKey
		packageHash digest.Digest
	)

	BeforeEach(func() {
		store = newMemoryStore()
		root, rootPriv = genIdentity()
		a, aPriv = genIdentity()
		b, bPriv = genIdentity()
		packageHash = digest.HashBytes([]byte("package contents under review"))
	})

	It("resolves a transitively trusted reviewer and verifies the digest", func() {
		By("root trusting a at the high level")
		signAndPublish(store, proof.Content{
			From:  proof.Endpoint{Id: root},
			Date:  time.Now(),
			Trust: &proof.TrustContent{Trust: id.High, Ids: []proof.Endpoint{{Id: a}}},
		}, rootPriv)

		By("a positively reviewing the package")
		signAndPublish(store, proof.Content{
			From: proof.Endpoint{Id: a},
			Date: time.Now(),
			Package: &proof.PackageContent{
				Package: proof.PackageInfo{Source: "crates.io", Name: "serde", Version: "1.0.0", Digest: packageHash, DigestType: digest.Algorithm},
				Review:  proof.Review{Rating: id.Positive},
			},
		}, aPriv)

		fetched, err := store.Fetch(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(fetched).To(HaveLen(2))

		db := trustdb.New()
		db.ImportFromIter(fetched)

		trustedIds := trustset.Resolve(db, root, trustset.DefaultTrustDistanceParams())
		Expect(trustedIds).To(HaveKey(a))

		status := verify.VerifyDigest(db, packageHash, trustedIds)
		Expect(status).To(Equal(verify.Verified))
	})

	It("flags a digest once a trusted reviewer rates it negatively, even with other positive reviews", func() {
		signAndPublish(store, proof.Content{
			From:  proof.Endpoint{Id: root},
			Date:  time.Now(),
			Trust: &proof.TrustContent{Trust: id.Medium, Ids: []proof.Endpoint{{Id: a}, {Id: b}}},
		}, rootPriv)

		signAndPublish(store, proof.Content{
			From: proof.Endpoint{Id: a},
			Date: time.Now(),
			Package: &proof.PackageContent{
				Package: proof.PackageInfo{Source: "crates.io", Name: "serde", Version: "1.0.0", Digest: packageHash, DigestType: digest.Algorithm},
				Review:  proof.Review{Rating: id.StronglyPositive},
			},
		}, aPriv)

		By("b flagging the same package as strongly negative")
		signAndPublish(store, proof.Content{
			From: proof.Endpoint{Id: b},
			Date: time.Now(),
			Package: &proof.PackageContent{
				Package: proof.PackageInfo{Source: "crates.io", Name: "serde", Version: "1.0.0", Digest: packageHash, DigestType: digest.Algorithm},
				Review:  proof.Review{Rating: id.StronglyNegative},
			},
		}, bPriv)

		fetched, err := store.Fetch(context.Background())
		Expect(err).NotTo(HaveOccurred())

		db := trustdb.New()
		db.ImportFromIter(fetched)

		trustedIds := trustset.Resolve(db, root, trustset.DefaultTrustDistanceParams())
		Expect(trustedIds).To(HaveKey(a))
		Expect(trustedIds).To(HaveKey(b))

		status := verify.VerifyDigest(db, packageHash, trustedIds)
		Expect(status).To(Equal(verify.Flagged))
	})

	It("leaves an unreviewed digest Unknown even when its package has trust edges", func() {
		signAndPublish(store, proof.Content{
			From:  proof.Endpoint{Id: root},
			Date:  time.Now(),
			Trust: &proof.TrustContent{Trust: id.High, Ids: []proof.Endpoint{{Id: a}}},
		}, rootPriv)

		fetched, err := store.Fetch(context.Background())
		Expect(err).NotTo(HaveOccurred())

		db := trustdb.New()
		db.ImportFromIter(fetched)

		trustedIds := trustset.Resolve(db, root, trustset.DefaultTrustDistanceParams())
		status := verify.VerifyDigest(db, packageHash, trustedIds)
		Expect(status).To(Equal(verify.Unknown))
	})
}
