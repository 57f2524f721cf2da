package main

import "github.com/wmrmrx/MAC0352-EP2/internal/cli"

func main() {
	cli.Execute(cli.NewClientCmd())
}
