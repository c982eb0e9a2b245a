package main

import "github.com/felixgeelhaar/nexus/cmd/nexus/cli"

func main() {
	cli.Execute()
}
