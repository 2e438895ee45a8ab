package main

import "github.com/vietddude/txsubmit/internal/cli"

func main() {
	cli.Execute()
}
