package main

import "github.com/vietddude/crmbridge/internal/cli"

func main() {
	cli.Execute()
}
