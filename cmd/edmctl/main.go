// Command edmctl validates Entity Data Model documents and manages the SQL
// metadata catalog.
package main

import (
	"os"

	"github.com/nlstn/go-edm/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
