package main

import "github.com/mvp-joe/xmldoc2json/internal/cli"

func main() {
	cli.Execute()
}
