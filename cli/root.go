// Package cli builds the stattrackd command tree.
package cli

import (
	"fmt"

	"github.com/coder/serpent"

	"github.com/ymohit1603/StatTrack-Backend-sub000/buildinfo"
)

type RootCmd struct{}

func (r *RootCmd) Command() *serpent.Command {
	cmd := &serpent.Command{
		Use:   "stattrackd",
		Short: "StatTrack heartbeat ingestion server",
		Handler: func(inv *serpent.Invocation) error {
			return inv.Command.HelpHandler(inv)
		},
		Children: []*serpent.Command{
			r.server(),
			r.version(),
		},
	}
	return cmd
}

func (*RootCmd) version() *serpent.Command {
	return &serpent.Command{
		Use:   "version",
		Short: "Show the stattrackd version",
		Handler: func(inv *serpent.Invocation) error {
			_, _ = fmt.Fprintf(inv.Stdout, "stattrackd %s\n%s\n", buildinfo.Version(), buildinfo.ExternalURL())
			return nil
		},
	}
}
