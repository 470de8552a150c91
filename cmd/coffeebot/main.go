package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tamperestartuphub/coffeesituation/internal/bot"
	"github.com/tamperestartuphub/coffeesituation/internal/cli"
	"github.com/tamperestartuphub/coffeesituation/internal/config"
	"github.com/tamperestartuphub/coffeesituation/internal/jokes"
	"github.com/tamperestartuphub/coffeesituation/internal/logging"
	"github.com/tamperestartuphub/coffeesituation/internal/monitor"
	"github.com/tamperestartuphub/coffeesituation/internal/slackrtm"
	"github.com/tamperestartuphub/coffeesituation/internal/watch"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "gateway":
		cmdGateway()
	case "console":
		cmdConsole()
	case "status":
		cmdStatus()
	case "version", "--version", "-v":
		fmt.Println(cli.TitleStyle.Render(
			fmt.Sprintf("  %s coffeebot v%s", cli.Logo, cli.Version),
		))
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	dim := cli.DimStyle.Render
	fmt.Println()
	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("  %s coffeebot", cli.Logo)) + dim(" — Coffee Related Communication And Relations Facilitator"))
	fmt.Println()
	fmt.Println("  " + cli.BoldStyle.Render("Usage"))
	fmt.Println()
	fmt.Printf("    coffeebot %-10s %s\n", "gateway", dim("Connect to Slack and start answering"))
	fmt.Printf("    coffeebot %-10s %s\n", "console", dim("Talk to the bot in a local terminal"))
	fmt.Printf("    coffeebot %-10s %s\n", "status", dim("Show configuration and monitor health"))
	fmt.Printf("    coffeebot %-10s %s\n", "version", dim("Show version"))
	fmt.Println()
}

// --- gateway command ---

func cmdGateway() {
	cfg := mustLoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error:\n%s\n", err)
		os.Exit(1)
	}
	redirectLogs(cfg, "gateway.log")

	fmt.Println()
	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("  %s coffeebot Gateway", cli.Logo)))
	fmt.Println(cli.DimStyle.Render("  Logs: " + filepath.Join(config.DataDir(), "gateway.log")))
	fmt.Println(cli.DimStyle.Render("  Press Ctrl+C to stop"))
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sess := slackrtm.New(cfg.Slack.BotToken, slackrtm.Options{
		StrictAuth:     cfg.Bot.StrictAuth,
		ReconnectDelay: time.Duration(cfg.Bot.ReconnectDelayS) * time.Second,
		Debug:          cfg.Bot.Debug,
	})

	mc := monitor.NewClient(cfg.Monitor.URL, cfg.Monitor.Token, "", cli.Version,
		time.Duration(cfg.Monitor.TimeoutS)*time.Second)
	classifier := bot.NewClassifier("", sess)
	engine := bot.New(bot.Config{
		Session:    sess,
		Classifier: classifier,
		Router:     bot.NewRouter(cfg.Slack.Maintainer, classifier, mc, jokes.NewSource()),
		ReadDelay:  time.Duration(cfg.Bot.ReadDelayS) * time.Second,
		Debug:      cfg.Bot.Debug,
	})

	if cfg.Watch.Enabled {
		w := watch.NewService(mc, time.Duration(cfg.Watch.IntervalS)*time.Second)
		go w.Run(ctx)
	}

	err := sess.Run(ctx, func(ctx context.Context) error {
		me := sess.Identity()
		classifier.SetSelf(me.UserID)
		mc.SetNetwork(sess.Network())
		slog.Info("session ready", "user", me.User, "team", me.Team)
		return engine.Run(ctx)
	})
	if err != nil {
		slog.Error("gateway stopped", "err", err)
		os.Exit(1)
	}
	fmt.Println("\n  Shutting down...")
}

// --- console command ---

func cmdConsole() {
	cfg := mustLoadConfig()
	redirectLogs(cfg, "console.log")
	if err := cli.RunConsole(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// --- status command ---

func cmdStatus() {
	cfg := mustLoadConfig()
	cli.RunStatus(cfg)
}

// --- helpers ---

// redirectLogs sends slog output to a file under the data dir, keeping the
// terminal free for the gateway banner or the TUI.
func redirectLogs(cfg *config.Config, name string) {
	level := slog.LevelInfo
	if cfg.Bot.Debug {
		level = slog.LevelDebug
	}
	logging.SetDefaultFile(filepath.Join(config.DataDir(), name), level)
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
	}
	return cfg
}
