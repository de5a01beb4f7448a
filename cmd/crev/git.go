package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ThomasdenH/crev/internal/errors"
)

// gitPassthroughCmds builds the `git|diff|commit|push|pull` pass-through
// commands: each forwards its arguments into the proof repository via the
// store's git pass-through, propagating the process exit code.
func gitPassthroughCmds() []*cobra.Command {
	names := []string{"git", "diff", "commit", "push", "pull"}
	cmds := make([]*cobra.Command, 0, len(names))
	for _, name := range names {
		name := name
		cmds = append(cmds, &cobra.Command{
			Use:                name,
			Short:              "Pass through to git " + name,
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openStore(cmd.Context())
				if err != nil {
					return err
				}
				var gitArgs []string
				if name == "git" {
					gitArgs = args
				} else {
					gitArgs = append([]string{name}, args...)
				}
				code, err := s.GitPassthrough(cmd.Context(), gitArgs)
				if err != nil {
					return err
				}
				os.Exit(code)
				return nil
			},
		})
	}
	return cmds
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch {trusted|url <u>|all}",
		Short: "Replenish the local proof store from remotes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			switch args[0] {
			case "trusted", "all":
				return s.Pull(cmd.Context(), args[0], "")
			case "url":
				if len(args) < 2 {
					return errors.New(errors.CategoryEnvironmental, errors.CodeIllegalQuery, "fetch url requires a URL argument")
				}
				return s.Pull(cmd.Context(), "url", args[1])
			default:
				return errors.New(errors.CategoryEnvironmental, errors.CodeIllegalQuery, "unknown fetch mode "+args[0])
			}
		},
	}
}
