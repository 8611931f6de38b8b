// Command aggregator serves repository content from a configured set of
// hosted, remote and group stores.
package main

import (
	stderrors "errors"
	"os"
)

// errNotExist ends a command with a failing exit status and no message.
var errNotExist = stderrors.New("content does not exist")

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !stderrors.Is(err, errNotExist) {
			printError(cmd.ErrOrStderr(), outputFormat(cmd), err)
		}
		os.Exit(1)
	}
}
