// cmd/genhash prints the bcrypt hash stored for a password.
// Usage: go run ./cmd/genhash <password>
package main

import (
	"fmt"
	"os"

	"github.com/BulizzesRG/myownpos/internal/service"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: genhash <password>")
		os.Exit(2)
	}
	h, err := service.HashPassword(os.Args[1])
	if err != nil {
		panic(err)
	}
	fmt.Println(h)
}
