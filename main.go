package main

import (
	"fmt"

	"github.com/remotekit/remotekit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		return
	}
}
