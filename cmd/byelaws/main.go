package main

import "byelaws/internal/cli"

func main() {
	cli.Execute()
}
