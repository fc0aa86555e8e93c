package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mkierin/second-brain-web-interface/internal/auth"
)

func main() {
	password := flag.String("password", "", "Password to hash (reads stdin if omitted)")
	flag.Parse()

	pw := *password
	if pw == "" {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "Usage: mkpasswd -password <password>  (or pipe the password on stdin)")
			os.Exit(1)
		}
		pw = strings.TrimRight(line, "\r\n")
	}

	if pw == "" {
		fmt.Fprintln(os.Stderr, "password must not be empty")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(pw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
