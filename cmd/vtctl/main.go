// Command vtctl is a control server that drives interactive terminal
// applications under a pseudo-terminal on behalf of an automated
// client, exposing a small set of remote operations over stdio.
package main

import "vtctl/internal/cli"

func main() {
    cli.Execute()
}
