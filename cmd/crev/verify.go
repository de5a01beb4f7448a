package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ThomasdenH/crev/internal/digest"
	crerrors "github.com/ThomasdenH/crev/internal/errors"
	"github.com/ThomasdenH/crev/internal/id"
	"github.com/ThomasdenH/crev/internal/orchestrator"
	"github.com/ThomasdenH/crev/internal/trustset"
	"github.com/ThomasdenH/crev/internal/verify"
)

// dependencyManifest is the minimal shape the external package manager is
// expected to hand the Orchestrator: acquisition itself is out of scope
// (spec §1), so verify deps reads this list from a manifest file the
// caller's package manager integration writes.
type dependencyManifest struct {
	Dependencies []orchestrator.Dependency `json:"dependencies"`
}

func verifyDepsCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify dependency digests against the trust database",
	}
	deps := &cobra.Command{
		Use:   "deps",
		Short: "Run the Orchestrator over the current workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			activeId, _, err := loadActiveSigner()
			if err != nil {
				return err
			}

			db, query, err := loadDB(cmd.Context())
			if err != nil {
				return err
			}

			trustedIds := trustset.Resolve(db, activeId, cfg.TrustDistanceParams)

			manifestDeps, err := readDependencyManifest()
			if err != nil {
				return err
			}

			cwd, err := os.Getwd()
			if err != nil {
				return crerrors.Wrap(crerrors.CodeIO, "get working directory", err)
			}

			ignore := digest.DefaultIgnoreWith(cfg.IgnoreList)
			o := orchestrator.New(db, query, downloadCounter, ignore, cwd)

			return runVerifyDeps(cmd.Context(), o, manifestDeps, trustedIds, verbose, cmd.OutOrStdout())
		},
	}
	deps.Flags().BoolVar(&verbose, "verbose", false, "include the computed digest in each row")
	cmd.AddCommand(deps)
	return cmd
}

// runVerifyDeps runs o over deps, printing one row per dependency to out,
// and returns a CodeFlaggedDependency error if any row is Flagged. This is
// split out from the RunE closure so the exit-code-driving decision (a
// Flagged row producing a non-nil error, which main's Execute()-driven
// os.Exit(1) picks up) is exercisable without an on-disk identity or store.
func runVerifyDeps(ctx context.Context, o *orchestrator.Orchestrator, deps []orchestrator.Dependency, trustedIds map[id.Id]struct{}, verbose bool, out io.Writer) error {
	rows, err := o.Run(ctx, deps, trustedIds)
	if err != nil {
		return err
	}

	anyFlagged := false
	for _, row := range rows {
		printRow(out, row, verbose)
		if row.Status == verify.Flagged {
			anyFlagged = true
		}
	}
	if anyFlagged {
		return crerrors.New(crerrors.CategoryEnvironmental, crerrors.CodeFlaggedDependency, "one or more dependencies are flagged")
	}
	return nil
}

func printRow(out io.Writer, row orchestrator.Row, verbose bool) {
	dlCount := "err"
	if !row.DownloadCountErr {
		dlCount = fmt.Sprint(row.DownloadCount)
	}
	if verbose {
		fmt.Fprintf(out, "%-30s %-10s %-9s reviews(name)=%d reviews(version)=%d downloads=%s digest=%s\n",
			row.Dependency.Name, row.Dependency.Version, row.Status, row.ReviewsByName, row.ReviewsByNameVersion, dlCount, row.Digest.String())
		return
	}
	fmt.Fprintf(out, "%-30s %-10s %-9s reviews(name)=%d reviews(version)=%d downloads=%s\n",
		row.Dependency.Name, row.Dependency.Version, row.Status, row.ReviewsByName, row.ReviewsByNameVersion, dlCount)
}

func readDependencyManifest() ([]orchestrator.Dependency, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, crerrors.Wrap(crerrors.CodeIO, "get working directory", err)
	}
	path := filepath.Join(cwd, "crev-deps.json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, crerrors.Wrap(crerrors.CodeIO, "read dependency manifest", err)
	}
	var m dependencyManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, crerrors.Wrap(crerrors.CodeIO, "parse dependency manifest", err)
	}
	return m.Dependencies, nil
}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "query", Short: "Query the trust database"}

	idCmd := &cobra.Command{
		Use:   "id [current|own|trusted|all]",
		Short: "Query known identities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			activeId, _, err := loadActiveSigner()
			if err != nil {
				return err
			}
			db, _, err := loadDB(cmd.Context())
			if err != nil {
				return err
			}
			switch args[0] {
			case "current", "own":
				fmt.Println(activeId.String())
			case "trusted":
				for i := range trustset.Resolve(db, activeId, cfg.TrustDistanceParams) {
					fmt.Println(i.String())
				}
			case "all":
				for _, i := range db.AllKnownIds() {
					fmt.Println(i.String())
				}
			default:
				return crerrors.New(crerrors.CategoryEnvironmental, crerrors.CodeIllegalQuery, "unknown query id mode "+args[0])
			}
			return nil
		},
	}

	reviewQueryCmd := &cobra.Command{
		Use:   "review [name] [version]",
		Short: "Query package reviews",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, query, err := loadDB(cmd.Context())
			if err != nil {
				return err
			}
			const source = "crates.io"
			var name, version *string
			if len(args) > 0 {
				name = &args[0]
			}
			if len(args) > 1 {
				version = &args[1]
			}
			for _, entry := range query.Reviews(source, name, version) {
				fmt.Printf("%s %s by %s rating=%s\n", entry.Package.Name, entry.Package.Version, entry.Author.String(), entry.Review.Rating)
			}
			return nil
		},
	}

	cmd.AddCommand(idCmd, reviewQueryCmd)
	return cmd
}
