package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/binhbb2204/GameShelf/internal/events"
	"github.com/binhbb2204/GameShelf/internal/realtime"
	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const watchPingInterval = 25 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow library changes live",
	Long:  `Connect to the realtime endpoint and print library events as they happen, including changes made from other devices.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		wsURL, err := websocketURL(cfg.ServerURL(), cfg.User.Token)
		if err != nil {
			return err
		}

		conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			if res != nil {
				return fmt.Errorf("connection rejected: %s", res.Status)
			}
			return fmt.Errorf("failed to connect: %w", err)
		}
		defer conn.Close()
		cliLog.Info("watch_connected", "url", cfg.ServerURL())

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		defer signal.Stop(interrupt)

		done := make(chan error, 1)
		go func() {
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					done <- err
					return
				}
				var msg realtime.ServerMessage
				if err := json.Unmarshal(data, &msg); err != nil {
					continue
				}
				fmt.Println(formatServerMessage(msg))
			}
		}()

		ticker := time.NewTicker(watchPingInterval)
		defer ticker.Stop()

		printInfo("Watching for library changes (Ctrl+C to stop)")
		for {
			select {
			case err := <-done:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					printInfo("Connection closed by server")
					return nil
				}
				return fmt.Errorf("connection lost: %w", err)
			case <-ticker.C:
				data, _ := json.Marshal(realtime.ClientMessage{Type: "ping"})
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return fmt.Errorf("connection lost: %w", err)
				}
			case <-interrupt:
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				select {
				case <-done:
				case <-time.After(time.Second):
				}
				fmt.Println()
				printInfo("Stopped watching")
				return nil
			}
		}
	},
}

func websocketURL(serverURL, token string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

// formatServerMessage renders one pushed message as a single line.
func formatServerMessage(msg realtime.ServerMessage) string {
	ts := msg.Timestamp.Local().Format("15:04:05")
	switch msg.Type {
	case realtime.MessageTypeEvent:
		if msg.Event == nil {
			return fmt.Sprintf("[%s] event", ts)
		}
		return fmt.Sprintf("[%s] %s", ts, describeEvent(*msg.Event))
	case realtime.MessageTypeError:
		return color.RedString("[%s] error: %s", ts, msg.Content)
	case realtime.MessageTypePong:
		return color.HiBlackString("[%s] pong", ts)
	default:
		return color.CyanString("[%s] %s", ts, msg.Content)
	}
}

func describeEvent(e events.Event) string {
	name, _ := e.Data["name"].(string)
	if name == "" {
		if id, ok := e.Data["game_id"].(float64); ok {
			name = fmt.Sprintf("game %d", int64(id))
		}
	}

	switch e.Type {
	case events.EventLibraryAdd:
		return color.GreenString("+ added %s", name) + statusSuffix(e.Data["status"])
	case events.EventLibraryRemove:
		return color.RedString("- removed %s", name)
	case events.EventLibraryUpdate:
		return color.YellowString("~ updated %s", name)
	case events.EventStatusChange:
		return color.YellowString("~ %s: %v -> %v", name, e.Data["from"], e.Data["to"])
	case events.EventStatsUpdated:
		return fmt.Sprintf("stats: %v games, %v completed, average %v",
			e.Data["total_games"], e.Data["completed_games"], e.Data["average_rating"])
	case events.EventAccountDeleted:
		return color.RedString("account deleted")
	}
	return string(e.Type)
}

func statusSuffix(v interface{}) string {
	if s, ok := v.(string); ok && s != "" {
		return " (" + s + ")"
	}
	return ""
}
