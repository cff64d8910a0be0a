// Command resque pushes jobs, follows job status and runs workers.
package main

import (
	"os"

	"github.com/xraph/resque/cli"
)

func main() {
	os.Exit(cli.Execute())
}
