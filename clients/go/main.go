// brainweb CLI - command line client for the second-brain web API
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkierin/second-brain-web-interface/clients/go/brainweb"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("BRAINWEB_URL")
	client := brainweb.NewClient(baseURL)
	cmd := os.Args[1]

	switch cmd {
	case "login":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: brainweb login <username> <password>")
			os.Exit(1)
		}
		resp, err := client.Login(os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("Logged in as: %s\n", resp.Username)

	case "send":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: brainweb send <message> [agent]")
			os.Exit(1)
		}
		agent := ""
		if len(os.Args) > 3 {
			agent = os.Args[3]
		}
		msg, err := client.Send(os.Args[2], agent)
		exitOnError(err)
		fmt.Printf("Sent: %s\n", msg.ID)

	case "history":
		resp, err := client.History(50)
		exitOnError(err)
		for _, msg := range resp.Messages {
			printMessage(msg)
		}

	case "pending":
		resp, err := client.Pending()
		exitOnError(err)
		if len(resp.Responses) == 0 {
			fmt.Println("(no pending responses)")
			return
		}
		for _, msg := range resp.Responses {
			printMessage(msg)
		}

	case "watch":
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		fmt.Println("Watching for responses (Ctrl-C to stop)...")
		err := client.Stream(ctx, printMessage)
		exitOnError(err)

	case "whoami":
		resp, err := client.Me()
		exitOnError(err)
		printJSON(resp)

	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "stats":
		resp, err := client.Stats()
		exitOnError(err)
		printJSON(resp)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`brainweb CLI - second-brain web interface

Usage: brainweb <command> [options]

Commands:
  login <user> <password>  Log in and store the session token
  send <message> [agent]   Send a message (agent forces the target)
  history                  Show the recent conversation
  pending                  Drain queued bot responses once
  watch                    Stream bot responses live
  whoami                   Show the logged-in profile
  health                   Check server health
  stats                    Show service statistics

Environment:
  BRAINWEB_URL      Server URL (default: http://localhost:8000)
  BRAINWEB_CONFIG   Config directory (default: ~/.brainweb)`)
}

func printMessage(msg brainweb.Message) {
	ts := msg.Timestamp
	if parsed, err := time.Parse("2006-01-02T15:04:05.000000Z", ts); err == nil {
		ts = parsed.Local().Format("2006-01-02 15:04:05")
	}
	sender := msg.Sender
	if msg.Agent != "" {
		sender = sender + "/" + msg.Agent
	}
	fmt.Printf("[%s] %s: %s\n", ts, sender, msg.Text)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
