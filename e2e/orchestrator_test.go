//go:build e2e

package e2e

import (
	"context"
	"crypto/ed25519"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ThomasdenH/crev/internal/digest"
	"github.com/ThomasdenH/crev/internal/id"
	"github.com/ThomasdenH/crev/internal/orchestrator"
	"github.com/ThomasdenH/crev/internal/proof"
	"github.com/ThomasdenH/crev/internal/review"
	"github.com/ThomasdenH/crev/internal/trustdb"
	"github.com/ThomasdenH/crev/internal/trustset"
)

func orchestratorTests() {
	var (
		store    *memoryStore
		root     id.Id
		rootPriv ed25519.PrivateKey
		reviewer id.Id
		revPriv  ed25519.PrivateKey
		depDir   string
		depDigest digest.Digest
	)

	BeforeEach(func() {
		store = newMemoryStore()
		root, rootPriv = genIdentity()
		reviewer, revPriv = genIdentity()

		depDir = filepath.Join(GinkgoT().TempDir(), "serde-1.0.0")
		Expect(os.MkdirAll(depDir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(depDir, "lib.rs"), []byte("pub fn noop() {}"), 0o644)).To(Succeed())

		var err error
		depDigest, err = digest.Directory(depDir, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	buildDB := func() *trustdb.TrustDB {
		fetched, err := store.Fetch(context.Background())
		Expect(err).NotTo(HaveOccurred())
		db := trustdb.New()
		db.ImportFromIter(fetched)
		return db
	}

	It("reports Verified for a dependency whose digest matches a trusted positive review", func() {
		signAndPublish(store, proof.Content{
			From:  proof.Endpoint{Id: root},
			Date:  time.Now(),
			Trust: &proof.TrustContent{Trust: id.High, Ids: []proof.Endpoint{{Id: reviewer}}},
		}, rootPriv)
		signAndPublish(store, proof.Content{
			From: proof.Endpoint{Id: reviewer},
			Date: time.Now(),
			Package: &proof.PackageContent{
				Package: proof.PackageInfo{Source: "crates.io", Name: "serde", Version: "1.0.0", Digest: depDigest, DigestType: digest.Algorithm},
				Review:  proof.Review{Rating: id.Positive},
			},
		}, revPriv)

		db := buildDB()
		trustedIds := trustset.Resolve(db, root, trustset.DefaultTrustDistanceParams())
		query := review.New(db)
		o := orchestrator.New(db, query, failingCounter{err: errors.New("no remote index configured")}, nil, "/workspace-root-that-does-not-contain-deps")

		rows, err := o.Run(context.Background(), []orchestrator.Dependency{
			{Source: "crates.io", Name: "serde", Version: "1.0.0", Path: depDir},
		}, trustedIds)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Status.String()).To(Equal("verified"))
		Expect(rows[0].ReviewsByNameVersion).To(Equal(1))
	})

	It("downgrades a download-count lookup failure to a per-row flag instead of aborting the pass", func() {
		db := buildDB()
		query := review.New(db)
		o := orchestrator.New(db, query, failingCounter{err: errors.New("index unreachable")}, nil, "/workspace-root-that-does-not-contain-deps")

		rows, err := o.Run(context.Background(), []orchestrator.Dependency{
			{Source: "crates.io", Name: "serde", Version: "1.0.0", Path: depDir},
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].DownloadCountErr).To(BeTrue())
		Expect(rows[0].Status.String()).To(Equal("unknown"))
	})

	It("skips a dependency materialized under the caller's own workspace", func() {
		db := buildDB()
		query := review.New(db)
		o := orchestrator.New(db, query, failingCounter{}, nil, filepath.Dir(depDir))

		rows, err := o.Run(context.Background(), []orchestrator.Dependency{
			{Source: "crates.io", Name: "serde", Version: "1.0.0", Path: depDir},
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(BeEmpty())
	})

	It("preserves input order and isolates a per-row download-count failure across multiple dependencies, flagging one of them", func() {
		otherDir := filepath.Join(GinkgoT().TempDir(), "libc-0.2.0")
		Expect(os.MkdirAll(otherDir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(otherDir, "lib.rs"), []byte("pub fn other() {}"), 0o644)).To(Succeed())
		otherDigest, err := digest.Directory(otherDir, nil)
		Expect(err).NotTo(HaveOccurred())

		signAndPublish(store, proof.Content{
			From:  proof.Endpoint{Id: root},
			Date:  time.Now(),
			Trust: &proof.TrustContent{Trust: id.High, Ids: []proof.Endpoint{{Id: reviewer}}},
		}, rootPriv)
		signAndPublish(store, proof.Content{
			From: proof.Endpoint{Id: reviewer},
			Date: time.Now(),
			Package: &proof.PackageContent{
				Package: proof.PackageInfo{Source: "crates.io", Name: "serde", Version: "1.0.0", Digest: depDigest, DigestType: digest.Algorithm},
				Review:  proof.Review{Rating: id.Positive},
			},
		}, revPriv)
		signAndPublish(store, proof.Content{
			From: proof.Endpoint{Id: reviewer},
			Date: time.Now(),
			Package: &proof.PackageContent{
				Package: proof.PackageInfo{Source: "crates.io", Name: "libc", Version: "0.2.0", Digest: otherDigest, DigestType: digest.Algorithm},
				Review:  proof.Review{Rating: id.StronglyNegative},
			},
		}, revPriv)

		db := buildDB()
		trustedIds := trustset.Resolve(db, root, trustset.DefaultTrustDistanceParams())
		query := review.New(db)
		o := orchestrator.New(db, query, failingCounter{err: errors.New("index unreachable")}, nil, "/workspace-root-that-does-not-contain-deps")

		deps := []orchestrator.Dependency{
			{Source: "crates.io", Name: "serde", Version: "1.0.0", Path: depDir},
			{Source: "crates.io", Name: "libc", Version: "0.2.0", Path: otherDir},
		}
		rows, err := o.Run(context.Background(), deps, trustedIds)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))

		Expect(rows[0].Dependency.Name).To(Equal("serde"))
		Expect(rows[1].Dependency.Name).To(Equal("libc"))

		Expect(rows[0].Status.String()).To(Equal("verified"))
		Expect(rows[1].Status.String()).To(Equal("flagged"))

		for _, row := range rows {
			Expect(row.DownloadCountErr).To(BeTrue(), "a failing remote index lookup must be isolated to each row, not abort the pass")
		}
	})
}
