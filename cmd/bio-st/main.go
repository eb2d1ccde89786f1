// bio-st filters, indexes and summarizes spatial transcriptomics reads.
package main

import "github.com/grailbio/stqc/cmd/bio-st/cmd"

func main() {
	cmd.Run()
}
