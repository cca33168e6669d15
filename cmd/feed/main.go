package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"feed-lab/auth"
	"feed-lab/contract"
	"feed-lab/domain/feed"
	"feed-lab/internal"
	"feed-lab/repositories"
	"feed-lab/services"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// Exit codes to provide meaningful status to the operating system.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		color.Red.Printf("Error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	command := flag.String("cmd", "list", "Command: register|login-check|list|mine|post|edit|delete")
	username := flag.String("user", "", "Username (commands that mutate require it)")
	password := flag.String("pass", "", "Password")
	text := flag.String("text", "", "Message text (post/edit)")
	messageID := flag.Int64("id", 0, "Message id (edit/delete)")
	flag.Parse()

	// 1. Load configuration from the environment.
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	revision, err := config.Revision()
	if err != nil {
		return exitConfig, err
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Wire the client stack. One shared transport, no client-side timeout:
	// a request runs to completion or failure.
	codec := contract.NewCodec(revision)
	httpClient := &http.Client{}
	messageRepo := repositories.NewMessageRepository(httpClient, config.NormalizedBaseURL(), codec, log)
	accountRepo := repositories.NewAccountRepository(httpClient, config.NormalizedBaseURL(), codec, log)
	session := auth.NewSession()
	authService := services.NewAuthService(accountRepo, session, log)
	feedService := services.NewFeedService(messageRepo, session, revision, log)

	ctx := context.Background()

	// 3. Authenticate when the command needs an identity.
	switch *command {
	case "register":
		identity, err := authService.Register(ctx, *username, *password)
		if err != nil {
			return exitRuntime, err
		}
		color.Green.Printf("Registered as %s (account %d)\n", identity.Username, identity.AccountID)
		return exitOK, nil
	case "login-check":
		identity, err := authService.Login(ctx, *username, *password)
		if err != nil {
			return exitRuntime, err
		}
		color.Green.Printf("Credentials valid for %s (account %d)\n", identity.Username, identity.AccountID)
		return exitOK, nil
	case "mine", "post", "edit", "delete":
		if _, err := authService.Login(ctx, *username, *password); err != nil {
			return exitRuntime, err
		}
	}

	// 4. Run the feed command.
	switch *command {
	case "list":
		if err := feedService.Refresh(ctx); err != nil {
			return exitRuntime, err
		}
		renderFeed(feedService.ListFeed())
	case "mine":
		messages, err := feedService.MyPosts(ctx)
		if err != nil {
			return exitRuntime, err
		}
		renderFeed(messages)
	case "post":
		if err := feedService.CreatePost(ctx, *text); err != nil {
			return exitRuntime, err
		}
		color.Green.Println("Posted")
		renderFeed(feedService.ListFeed())
	case "edit":
		// Refresh first so the ownership check runs against a current snapshot.
		if err := feedService.Refresh(ctx); err != nil {
			return exitRuntime, err
		}
		applied, err := feedService.EditPost(ctx, *messageID, *text)
		if err != nil {
			return exitRuntime, err
		}
		reportMutation(applied, "Updated")
		renderFeed(feedService.ListFeed())
	case "delete":
		if err := feedService.Refresh(ctx); err != nil {
			return exitRuntime, err
		}
		applied, err := feedService.RemovePost(ctx, *messageID)
		if err != nil {
			return exitRuntime, err
		}
		reportMutation(applied, "Deleted")
		renderFeed(feedService.ListFeed())
	default:
		return exitConfig, fmt.Errorf("unknown command %q", *command)
	}
	return exitOK, nil
}

func reportMutation(applied bool, verb string) {
	if applied {
		color.Green.Println(verb)
		return
	}
	// Affected-count zero: the target was already gone. Informational.
	color.Yellow.Println("Message no longer exists, feed refreshed")
}

func renderFeed(messages []feed.Message) {
	if len(messages) == 0 {
		fmt.Println("No messages yet.")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Account", "Posted", "Text"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, row := range lo.Map(messages, toRow) {
		table.Append(row)
	}
	table.Render()
}

func toRow(m feed.Message, _ int) []string {
	posted := "-"
	if m.PostedAtMillis != nil {
		posted = time.UnixMilli(*m.PostedAtMillis).UTC().Format(time.RFC822)
	}
	return []string{
		fmt.Sprintf("%d", m.MessageID),
		fmt.Sprintf("%d", m.OwnerAccountID),
		posted,
		m.Text,
	}
}
