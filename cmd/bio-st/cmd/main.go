package cmd

import (
	"github.com/grailbio/base/grail"
	"v.io/x/lib/cmdline"
)

func newRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-st",
		Short:    "Tools for spatial transcriptomics reads",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdFilter(),
			newCmdIndex(),
			newCmdDataset(),
			newCmdChecksum(),
		},
	}
}

// Run runs the command named by the process arguments.
func Run() {
	cleanup := grail.Init()
	defer cleanup()
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newRoot())
}
