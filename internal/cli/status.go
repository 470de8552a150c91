package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tamperestartuphub/coffeesituation/internal/config"
	"github.com/tamperestartuphub/coffeesituation/internal/monitor"
)

// RunStatus displays the effective configuration with secrets masked, and
// probes the monitoring service when it is configured.
func RunStatus(cfg *config.Config) {
	cfgPath := config.ConfigPath()

	fmt.Println()
	fmt.Println(TitleStyle.Render(fmt.Sprintf("  %s coffeebot Status", Logo)))
	fmt.Println()

	fmt.Printf("  %-14s %s  %s\n", "Config", StatusBadge(fileExists(cfgPath)), DimStyle.Render(cfgPath))
	fmt.Printf("  %-14s %s  %s\n", "Slack token", StatusBadge(cfg.Slack.BotToken != ""), DimStyle.Render(mask(cfg.Slack.BotToken)))
	fmt.Printf("  %-14s %s  %s\n", "Maintainer", StatusBadge(cfg.Slack.Maintainer != ""), DimStyle.Render(cfg.Slack.Maintainer))
	fmt.Printf("  %-14s %s  %s\n", "Monitor URL", StatusBadge(cfg.Monitor.URL != ""), DimStyle.Render(cfg.Monitor.URL))
	fmt.Printf("  %-14s %s  %s\n", "Monitor token", StatusBadge(cfg.Monitor.Token != ""), DimStyle.Render(mask(cfg.Monitor.Token)))
	fmt.Println()

	fmt.Println("  " + BoldStyle.Render("Engine"))
	fmt.Printf("    Read delay      %ds\n", cfg.Bot.ReadDelayS)
	fmt.Printf("    Reconnect delay %ds\n", cfg.Bot.ReconnectDelayS)
	fmt.Printf("    %s  Strict auth\n", StatusBadge(cfg.Bot.StrictAuth))
	fmt.Printf("    %s  Watchdog\n", StatusBadge(cfg.Watch.Enabled))
	fmt.Println()

	if cfg.Monitor.URL == "" {
		return
	}

	mc := monitor.NewClient(cfg.Monitor.URL, cfg.Monitor.Token, "status-cli", Version,
		time.Duration(cfg.Monitor.TimeoutS)*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := mc.ProbeStatus(ctx, monitor.Query{Channel: "status-cli", Username: "status-cli", Message: "status"})
	switch {
	case err != nil:
		fmt.Printf("  %s  %s\n", StatusBadge(false), ErrStyle.Render("Monitoring app unreachable"))
	case out.Status == "OK":
		fmt.Printf("  %s  %s\n", StatusBadge(true), "Monitoring app is running")
	default:
		fmt.Printf("  %s  %s\n", StatusBadge(false), out.Text)
	}
	fmt.Println()
}

func mask(s string) string {
	if s == "" {
		return "(unset)"
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "…" + s[len(s)-2:]
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
