package main

import (
	"github.com/mailsignal/dmarclens/cmd"
)

func main() {
	cmd.Execute()
}
