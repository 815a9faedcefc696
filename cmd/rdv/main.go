// Executable rdv runs either side of a rendezvous, or a development
// directory server.
package main

import (
	"github.com/TheusHen/rendezvous/cmd/rdv/internal/cmd"
)

func main() {
	cmd.Execute()
}
