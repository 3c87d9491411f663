// Command dashctl provides small administrative helpers. The hash command
// derives an argon2id password hash suitable for pasting into the users
// document when bootstrapping outside the API.
package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/mkalinins/dashvault/internal/password"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "hash":
		if err := runHash(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: dashctl hash")
}

func runHash() error {
	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stderr, "Repeat password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	if string(first) != string(second) {
		return fmt.Errorf("passwords do not match")
	}

	hasher := password.NewHasher(password.DefaultParams())
	encoded, err := hasher.Hash(string(first))
	if err != nil {
		return err
	}

	fmt.Println(encoded)
	return nil
}
