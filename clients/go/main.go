// jobsearch CLI - Command line client for the jobsearch chat API
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/eldtechnologies/jobsearch/clients/go/jobsearch"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client := jobsearch.NewClient(os.Getenv("JOBSEARCH_URL"))
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "register":
		if len(os.Args) < 6 {
			fmt.Fprintln(os.Stderr, "Usage: jobsearch register <first> <last> <email> <password> [role]")
			os.Exit(1)
		}
		req := jobsearch.RegisterRequest{
			FirstName: os.Args[2],
			LastName:  os.Args[3],
			Email:     os.Args[4],
			Password:  os.Args[5],
		}
		if len(os.Args) > 6 {
			req.Role = strings.Join(os.Args[6:], " ")
		}
		resp, err := client.Register(req)
		exitOnError(err)
		fmt.Printf("Registered as: %s (%s)\n", resp.ID, resp.Role)

	case "user":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: jobsearch user <user_id>")
			os.Exit(1)
		}
		resp, err := client.GetUser(os.Args[2])
		exitOnError(err)
		printJSON(resp)

	case "send":
		if len(os.Args) < 5 {
			fmt.Fprintln(os.Stderr, "Usage: jobsearch send <sender_id> <receiver_id> <message>")
			os.Exit(1)
		}
		resp, err := client.SendMessage(os.Args[2], os.Args[3], strings.Join(os.Args[4:], " "))
		exitOnError(err)
		last := resp.Messages[len(resp.Messages)-1]
		fmt.Printf("Sent: %s (thread %s)\n", last.ID, resp.ID)

	case "history":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: jobsearch history <user_id> <other_id>")
			os.Exit(1)
		}
		resp, err := client.History(os.Args[2], os.Args[3])
		exitOnError(err)
		for _, msg := range resp.Messages {
			from := msg.Sender.Name
			if from == "" {
				from = msg.Sender.ID
			}
			fmt.Printf("[%s] %s: %s\n", msg.SentAt.Format("2006-01-02 15:04:05"), from, msg.Message)
		}

	case "listen":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: jobsearch listen <user_id> <other_id>")
			os.Exit(1)
		}
		listen(client, func(s *jobsearch.Socket) error { return s.JoinRoom(os.Args[2], os.Args[3]) })

	case "watch-job":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: jobsearch watch-job <job_id>")
			os.Exit(1)
		}
		listen(client, func(s *jobsearch.Socket) error { return s.JoinJob(os.Args[2]) })

	case "decide":
		if len(os.Args) < 5 {
			fmt.Fprintln(os.Stderr, "Usage: jobsearch decide <application_id> <recruiter_id> <status>")
			os.Exit(1)
		}
		resp, err := client.SetApplicationStatus(os.Args[2], os.Args[3], strings.Join(os.Args[4:], " "))
		exitOnError(err)
		fmt.Printf("Application %s: %s\n", resp.ID, resp.Status)

	case "jobs":
		q := jobsearch.JobQuery{}
		if len(os.Args) > 2 {
			q.Title = strings.Join(os.Args[2:], " ")
		}
		resp, err := client.SearchJobs(q)
		exitOnError(err)
		for _, job := range resp.Jobs {
			fmt.Printf("%s  %s (%s, %s)\n", job.ID, job.Title, job.Location, job.WorkingTime)
		}
		fmt.Printf("%d of %d\n", len(resp.Jobs), resp.Total)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

// listen joins a room and prints events until interrupted.
func listen(client *jobsearch.Client, join func(*jobsearch.Socket) error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sock, err := client.Connect(ctx)
	exitOnError(err)
	go func() {
		<-ctx.Done()
		sock.Close()
	}()
	exitOnError(join(sock))

	for {
		ev, err := sock.Next()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			exitOnError(err)
		}
		switch ev.Name {
		case jobsearch.EventReceiveMessage:
			msg, err := ev.ReceivedMessage()
			exitOnError(err)
			fmt.Printf("[%s] %s: %s\n", msg.SentAt.Format("15:04:05"), msg.SenderID, msg.Message)
		case jobsearch.EventNewApplication:
			app, err := ev.Application()
			exitOnError(err)
			fmt.Printf("New application %s from %s\n", app.ID, app.UserID)
		case jobsearch.EventApplicationSet:
			app, err := ev.Application()
			exitOnError(err)
			fmt.Printf("Application %s is now %s\n", app.ID, app.Status)
		case jobsearch.EventError:
			fmt.Fprintln(os.Stderr, "Error:", ev.ErrorReason())
		}
	}
}

func usage() {
	fmt.Println(`jobsearch CLI - chat and jobs client

Usage: jobsearch <command> [options]

Commands:
  register <first> <last> <email> <password> [role]   Create an account
  user <user_id>                                      Get a user profile
  send <sender_id> <receiver_id> <message>            Send a chat message
  history <user_id> <other_id>                        Read a conversation
  listen <user_id> <other_id>                         Stream a conversation
  watch-job <job_id>                                  Stream application events
  jobs [title]                                        Search job listings
  decide <application_id> <recruiter_id> <status>     Move an application forward
  health                                              Check server health

Environment:
  JOBSEARCH_URL   Server URL (default: http://localhost:3000)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
