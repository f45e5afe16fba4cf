package main

import "github.com/remcovanmook/networkd-schema/internal/cli"

func main() {
	cli.Execute()
}
