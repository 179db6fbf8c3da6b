// Command opkg is the embedded-system package manager's CLI entrypoint.
package main

import "opkg/internal/cli"

func main() {
	cli.Execute()
}
