package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	crerrors "github.com/ThomasdenH/crev/internal/errors"
	"github.com/ThomasdenH/crev/internal/id"
)

const (
	identitiesSubdir = "ids"
	activeIdFile     = "active-id"
)

func identitiesDir() string {
	return filepath.Join(opts.configDir, identitiesSubdir)
}

// newCmd builds the "new" command group. "new id" generates a signing
// identity and writes its private key under the config directory.
// Passphrase-protecting the key is out of scope (spec §1 names
// key-management UI as an external collaborator); the generated key is
// stored as an unlocked Ed25519 seed.
func newCmd() *cobra.Command {
	parent := &cobra.Command{Use: "new", Short: "Generate a new resource"}
	parent.AddCommand(&cobra.Command{
		Use:   "id",
		Short: "Generate a new signing identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return crerrors.Wrap(crerrors.CodeSignerUnavailable, "generate signing key", err)
			}
			generatedId, err := id.FromPublicKey(pub)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(identitiesDir(), 0o700); err != nil {
				return crerrors.Wrap(crerrors.CodeIO, "create identities directory", err)
			}
			seedPath := filepath.Join(identitiesDir(), generatedId.String()+".seed")
			if err := os.WriteFile(seedPath, []byte(base64.RawURLEncoding.EncodeToString(priv.Seed())), 0o600); err != nil {
				return crerrors.Wrap(crerrors.CodeIO, "write identity seed", err)
			}
			fmt.Println(generatedId.String())
			return nil
		},
	})
	return parent
}

func switchIdCmd() *cobra.Command {
	parent := &cobra.Command{Use: "switch", Short: "Switch the active resource"}
	parent.AddCommand(&cobra.Command{
		Use:   "id <id>",
		Short: "Select the active identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := id.Parse(args[0]); err != nil {
				return err
			}
			if err := os.MkdirAll(opts.configDir, 0o755); err != nil {
				return crerrors.Wrap(crerrors.CodeIO, "create config directory", err)
			}
			return os.WriteFile(filepath.Join(opts.configDir, activeIdFile), []byte(args[0]), 0o644)
		},
	})
	return parent
}

// loadActiveSigner reads the active identity and its unlocked Ed25519
// private key from disk, the "already-unlocked signing capabilities" the
// core's review-creation sketch (spec §4.8) consumes.
func loadActiveSigner() (id.Id, ed25519.PrivateKey, error) {
	active, err := os.ReadFile(filepath.Join(opts.configDir, activeIdFile))
	if err != nil {
		return id.Id{}, nil, crerrors.Wrap(crerrors.CodeSignerUnavailable, "no active identity selected; run 'crev switch id'", err)
	}
	activeId, err := id.Parse(string(active))
	if err != nil {
		return id.Id{}, nil, err
	}
	seedB64, err := os.ReadFile(filepath.Join(identitiesDir(), activeId.String()+".seed"))
	if err != nil {
		return id.Id{}, nil, crerrors.Wrap(crerrors.CodeSignerUnavailable, "read identity seed", err)
	}
	seed, err := base64.RawURLEncoding.DecodeString(string(seedB64))
	if err != nil {
		return id.Id{}, nil, crerrors.Wrap(crerrors.CodeSignerUnavailable, "decode identity seed", err)
	}
	return activeId, ed25519.NewKeyFromSeed(seed), nil
}
