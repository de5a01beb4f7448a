package main

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	crerrors "github.com/ThomasdenH/crev/internal/errors"
)

// editReadmeCmd invokes the user's $EDITOR on the proof repository's
// README. Interactive editor invocation is out of scope for the core
// (spec §1); this command is the named external collaborator boundary.
func editReadmeCmd() *cobra.Command {
	parent := &cobra.Command{Use: "edit", Short: "Edit a file of the proof repository"}
	parent.AddCommand(&cobra.Command{
		Use:   "readme",
		Short: "Edit the proof repository's README",
		RunE: func(cmd *cobra.Command, args []string) error {
			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = "vi"
			}
			readmePath := filepath.Join(cfg.ProofRepoPath, "README.md")
			c := exec.CommandContext(cmd.Context(), editor, readmePath)
			c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
			if err := c.Run(); err != nil {
				return crerrors.Wrap(crerrors.CodeIO, "run editor on README", err)
			}
			return nil
		},
	})
	return parent
}
