// Package main prints the bcrypt hash for LIFTLOG_ADMIN_PASSWORD_HASH.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/2beens/liftlog/pkg"
)

func main() {
	cost := flag.Int("cost", pkg.DefaultPasswordHashCost, "bcrypt cost")
	flag.Parse()

	password := ""
	if flag.NArg() > 0 {
		password = flag.Arg(0)
	} else {
		fmt.Fprint(os.Stderr, "password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintf(os.Stderr, "read password: %s\n", err)
			os.Exit(1)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if password == "" {
		fmt.Fprintln(os.Stderr, "empty password")
		os.Exit(2)
	}

	hash, err := hashPassword(password, *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %s\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func hashPassword(password string, cost int) (string, error) {
	if cost == pkg.DefaultPasswordHashCost {
		return pkg.HashPassword(password)
	}
	return pkg.HashPasswordWithCost(password, cost)
}
