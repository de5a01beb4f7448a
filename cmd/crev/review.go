package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ThomasdenH/crev/internal/digest"
	crerrors "github.com/ThomasdenH/crev/internal/errors"
	"github.com/ThomasdenH/crev/internal/id"
	"github.com/ThomasdenH/crev/internal/proof"
)

// externalMaterializer re-materializes a package directory by copying it
// from an independently obtained fresh source (e.g. a package manager's
// local registry cache), entirely distinct from the directory under
// review. Acquiring that fresh copy itself — resolving and downloading a
// package from a remote index — is out of scope (spec §1); the caller
// supplies its location via --from, and this type only performs the
// local copy digest.VerifyFreshness needs to compare against.
type externalMaterializer struct {
	source string
}

func (m externalMaterializer) Materialize(ctx context.Context, destPath string) error {
	return os.CopyFS(destPath, os.DirFS(m.source))
}

func createPackageReview(cmd *cobra.Command, name, version, fromPath string, rating id.Rating, comment string) error {
	if fromPath == "" {
		return crerrors.New(crerrors.CategoryEnvironmental, crerrors.CodeInvalidArgument,
			"--from is required: point it at an independently obtained fresh copy of the package to verify freshness against")
	}

	activeId, priv, err := loadActiveSigner()
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return crerrors.Wrap(crerrors.CodeIO, "get working directory", err)
	}
	pkgPath := filepath.Join(cwd, name+"-"+version)
	ignore := digest.DefaultIgnoreWith(cfg.IgnoreList)

	d, err := digest.VerifyFreshness(cmd.Context(), pkgPath, ignore, externalMaterializer{source: fromPath})
	if err != nil {
		return err
	}

	activeURL, _ := os.LookupEnv("CREV_URL")

	content := proof.Content{
		From: proof.Endpoint{Id: activeId, URL: activeURL},
		Date: time.Now(),
		Package: &proof.PackageContent{
			Package: proof.PackageInfo{
				Source:     "crates.io",
				Name:       name,
				Version:    version,
				Digest:     d,
				DigestType: digest.Algorithm,
			},
			Review: proof.Review{Rating: rating, Comment: comment},
		},
	}

	record, err := proof.Sign(content, priv)
	if err != nil {
		return err
	}

	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	return s.Publish(cmd.Context(), record)
}

func reviewCmd() *cobra.Command {
	var comment, from string
	cmd := &cobra.Command{
		Use:   "review <name> [version]",
		Short: "Review a package positively",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := ""
			if len(args) > 1 {
				version = args[1]
			}
			return createPackageReview(cmd, args[0], version, from, id.Positive, comment)
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "review comment")
	cmd.Flags().StringVar(&from, "from", "", "path to an independently obtained fresh copy of the package, used to verify freshness")
	return cmd
}

func flagCmd() *cobra.Command {
	var comment, from string
	cmd := &cobra.Command{
		Use:   "flag <name> [version]",
		Short: "Flag a package with a negative review",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := ""
			if len(args) > 1 {
				version = args[1]
			}
			return createPackageReview(cmd, args[0], version, from, id.Negative, comment)
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "review comment")
	cmd.Flags().StringVar(&from, "from", "", "path to an independently obtained fresh copy of the package, used to verify freshness")
	return cmd
}

func createTrust(cmd *cobra.Command, targetIds []string, level id.TrustLevel) error {
	activeId, priv, err := loadActiveSigner()
	if err != nil {
		return err
	}
	activeURL, _ := os.LookupEnv("CREV_URL")

	targets := make([]proof.Endpoint, 0, len(targetIds))
	for _, raw := range targetIds {
		parsed, err := id.Parse(raw)
		if err != nil {
			return err
		}
		targets = append(targets, proof.Endpoint{Id: parsed})
	}

	content := proof.Content{
		From: proof.Endpoint{Id: activeId, URL: activeURL},
		Date: time.Now(),
		Trust: &proof.TrustContent{
			Trust: level,
			Ids:   targets,
		},
	}

	record, err := proof.Sign(content, priv)
	if err != nil {
		return err
	}

	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	return s.Publish(cmd.Context(), record)
}

func trustCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trust <ids...>",
		Short: "Emit a Trust proof for one or more identities",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return createTrust(cmd, args, id.High)
		},
	}
}

func distrustCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distrust <ids...>",
		Short: "Emit a Distrust proof for one or more identities",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return createTrust(cmd, args, id.Distrust)
		},
	}
}
