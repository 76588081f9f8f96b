package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mohammed-Khaledx/connect-chat/internal/chat"
	"github.com/Mohammed-Khaledx/connect-chat/internal/client"
	"github.com/Mohammed-Khaledx/connect-chat/internal/log"
)

var (
	serverURL string
	userID    string
	userName  string
	logLevel  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "connect-cli",
		Short: "Terminal client for the connect-chat hub",
		Long: `connect-cli joins the chat as the given user, prints the global
message backfill, and then relays stdin lines to the hub. Lines starting
with "@userId " are sent privately to that user; everything else is global.`,
		RunE: runChat,
	}

	rootCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "server HTTP origin")
	rootCmd.Flags().StringVar(&userID, "user-id", "", "user id to connect as")
	rootCmd.Flags().StringVar(&userName, "user-name", "", "display name")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	_ = rootCmd.MarkFlagRequired("user-id")
	_ = rootCmd.MarkFlagRequired("user-name")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	logger := log.New(logLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backfill, err := client.FetchGlobalMessages(ctx, serverURL, 50)
	if err != nil {
		logger.Warn().Err(err).Msg("backfill unavailable")
	}
	// Backfill arrives newest first; render oldest first.
	for i := len(backfill) - 1; i >= 0; i-- {
		printMessage(&backfill[i])
	}

	connector := client.New(client.Config{
		URL:      wsURL(serverURL),
		Identity: chat.Identity{UserID: userID, UserName: userName},
	}, func(msg *chat.Message) {
		printMessage(msg)
	}, logger)
	defer connector.Disconnect()

	if err := connector.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	fmt.Printf("Connected as %s. Type messages; \"@userId text\" sends privately. Ctrl+C to exit.\n", userName)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if err := connector.Send(ctx, buildMessage(text)); err != nil {
				logger.Error().Err(err).Msg("send failed")
			}
		}
	}
}

// buildMessage turns one stdin line into a wire message. "@bob hi" becomes a
// private message to user id "bob"; anything else is global.
func buildMessage(text string) *chat.Message {
	if strings.HasPrefix(text, "@") {
		if receiver, body, found := strings.Cut(text[1:], " "); found && receiver != "" {
			return &chat.Message{
				ReceiverID: receiver,
				Content:    strings.TrimSpace(body),
			}
		}
	}
	return &chat.Message{
		Content: text,
		Global:  true,
	}
}

func printMessage(msg *chat.Message) {
	stamp := msg.Timestamp.Format("15:04:05")
	switch {
	case msg.SenderID == chat.SystemSenderID:
		fmt.Printf("[%s] ** %s **\n", stamp, msg.Content)
	case msg.Content == chat.ContentUserConnected:
		fmt.Printf("[%s] -- %s joined --\n", stamp, msg.UserName)
	case msg.Content == chat.ContentUserDisconnected:
		fmt.Printf("[%s] -- %s left --\n", stamp, msg.UserName)
	case !msg.Global:
		fmt.Printf("[%s] (private) %s: %s\n", stamp, msg.UserName, msg.Content)
	default:
		fmt.Printf("[%s] %s: %s\n", stamp, msg.UserName, msg.Content)
	}
}

func wsURL(httpOrigin string) string {
	switch {
	case strings.HasPrefix(httpOrigin, "https://"):
		return "wss://" + strings.TrimPrefix(httpOrigin, "https://") + "/chat"
	case strings.HasPrefix(httpOrigin, "http://"):
		return "ws://" + strings.TrimPrefix(httpOrigin, "http://") + "/chat"
	default:
		return httpOrigin + "/chat"
	}
}
