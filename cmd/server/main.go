package main

import "restoran-web/internal/cli"

func main() {
	cli.Execute()
}
