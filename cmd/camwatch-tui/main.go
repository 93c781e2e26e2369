package main

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/admincam/camwatch/internal/events"
	"github.com/admincam/camwatch/internal/logger"
	"github.com/admincam/camwatch/internal/tui/app"
	"github.com/admincam/camwatch/internal/tui/client"
)

func main() {
	wsURL := flag.String("url", "ws://127.0.0.1:8080/ws", "WebSocket URL of the camwatch server")
	token := flag.String("token", os.Getenv("CAMWATCH_TOKEN"), "Auth token (if the server requires it)")
	eosID := flag.String("eos-id", "", "Your EOS ID, used to run camera commands")
	name := flag.String("name", "", "Display name sent with camera commands")
	logPath := flag.String("log", "", "Write client logs to this file")
	flag.Parse()

	// The alternate screen owns stdout, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger.SetOutput(logOut)

	ws := client.NewWSClient(*wsURL, *token)
	httpClient := client.NewHTTPClient(deriveHTTPBase(*wsURL), *token)

	m := app.New(ws, httpClient, events.Player{EOSID: *eosID, Name: *name})
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// deriveHTTPBase converts ws://host:port/ws to http://host:port.
func deriveHTTPBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil || u.Host == "" {
		return "http://127.0.0.1:8080"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
