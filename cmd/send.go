package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vatsalai/vatsal/internal/bridge"
	"github.com/vatsalai/vatsal/internal/web"
)

var (
	sendServer    string
	sendRequestID string
	sendNoWait    bool
)

var sendCmd = &cobra.Command{
	Use:   "send <command...>",
	Short: "Send a command to a running vatsal server",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendServer, "server", "s", "", "Server base URL (default from config)")
	sendCmd.Flags().StringVar(&sendRequestID, "id", "", "Correlation id to attach")
	sendCmd.Flags().BoolVar(&sendNoWait, "no-wait", false, "Return once the command is queued")
}

func runSend(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base := sendServer
	if base == "" {
		base = "http://" + cfg.Web.Addr()
	}

	wait := !sendNoWait
	body, err := json.Marshal(web.ExecuteRequest{
		Command:   strings.Join(args, " "),
		RequestID: sendRequestID,
		Source:    string(bridge.SourceCLI),
		Wait:      &wait,
	})
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Web.ExecuteTimeout() + 5*time.Second}
	resp, err := client.Post(strings.TrimRight(base, "/")+"/api/execute", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	pretty, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(pretty))
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
