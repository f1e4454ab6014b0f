// townhall CLI - thin command line client for the townhall API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/danschewy/townhall/clients/go/townhall"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("TOWNHALL_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := townhall.NewClient(baseURL)
	cmd := os.Args[1]

	switch cmd {
	case "create":
		resp, err := client.CreateRoom()
		exitOnError(err)
		fmt.Println(resp.RoomCode)

	case "join":
		if len(os.Args) < 5 {
			fmt.Fprintln(os.Stderr, "Usage: townhall join <code> <name> <language>")
			os.Exit(1)
		}
		resp, err := client.JoinRoom(os.Args[2], os.Args[3], os.Args[4])
		exitOnError(err)
		fmt.Printf("joined %s as %s (%s)\n", resp.RoomCode, resp.UserID, resp.User.Language)

	case "leave":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: townhall leave <code> <userId>")
			os.Exit(1)
		}
		exitOnError(client.LeaveRoom(os.Args[2], os.Args[3]))

	case "users":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: townhall users <code>")
			os.Exit(1)
		}
		resp, err := client.GetRoom(os.Args[2])
		exitOnError(err)
		for _, u := range resp.Users {
			joined := time.UnixMilli(u.JoinedAt).Format("15:04:05")
			fmt.Printf("  %s  %s (%s) joined %s\n", u.ID, u.Name, u.Language, joined)
		}

	case "poll":
		if len(os.Args) < 5 {
			fmt.Fprintln(os.Stderr, "Usage: townhall poll <code> <userId> <language>")
			os.Exit(1)
		}
		resp, err := client.Poll(os.Args[2], os.Args[3], os.Args[4], 0)
		exitOnError(err)
		for _, msg := range resp.Messages {
			ts := time.UnixMilli(msg.Timestamp).Format("15:04:05")
			fmt.Printf("[%s] %s: %s (%d bytes audio)\n", ts, msg.SenderName, msg.Text, len(msg.Audio))
		}

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `townhall - voice room client

Commands:
  create                          create a room
  join <code> <name> <language>   join a room
  leave <code> <userId>           leave a room
  users <code>                    list room members
  poll <code> <userId> <language> fetch pending messages`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
