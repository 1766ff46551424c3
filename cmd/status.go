package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vatsalai/vatsal/internal/bridge"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vatsal configuration and live bridge status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	path := resolvedConfigPath()

	fmt.Printf("%s vatsal Status\n\n", logo)

	_, statErr := os.Stat(path)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:    %s %s\n", path, cfgMark)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	fmt.Printf("Web:       http://%s\n", cfg.Web.Addr())
	fmt.Printf("Desktop:   %s\n", mark(cfg.Desktop.Enabled))
	fmt.Printf("Shell:     %s\n", mark(cfg.Desktop.Shell.Enabled))
	fmt.Printf("Reporter:  %s %s\n", mark(cfg.Report.Enabled), cfg.Report.Schedule)
	fmt.Printf("Slack:     %s\n\n", mark(cfg.SlackReady()))

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get("http://" + cfg.Web.Addr() + "/api/status")
	if err != nil {
		fmt.Println("Server:    ✗ not reachable")
		return nil
	}
	defer resp.Body.Close()

	var body struct {
		Bridge    bridge.Status `json:"bridge"`
		Uptime    int64         `json:"uptime_seconds"`
		WSClients int           `json:"ws_clients"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}

	st := body.Bridge
	fmt.Printf("Server:    ✓ up %s\n", time.Duration(body.Uptime)*time.Second)
	fmt.Printf("  running            %s\n", mark(st.Running))
	fmt.Printf("  backend            %s %s\n", mark(st.BackendRegistered), st.Backend)
	fmt.Printf("  subscribers        %d\n", st.Subscribers)
	fmt.Printf("  pending commands   %d\n", st.PendingCommands)
	fmt.Printf("  pending responses  %d\n", st.PendingResponses)
	fmt.Printf("  subscriber faults  %d\n", st.SubscriberFaults)
	fmt.Printf("  websocket clients  %d\n", body.WSClients)
	return nil
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
