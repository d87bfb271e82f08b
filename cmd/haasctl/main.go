package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/edvin/haas/internal/config"
	"github.com/edvin/haas/internal/haasctl"
	"github.com/edvin/haas/internal/model"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "apply":
		cmdApply(os.Args[2:])
	case "start", "stop", "restart", "reload", "rebuild", "promote", "demote":
		cmdAction(os.Args[1], os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func cmdApply(args []string) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	file := fs.String("f", "", "Path to topology YAML file (required)")
	yes := fs.Bool("yes", false, "Confirm promote and demote actions without review")
	fs.Parse(args)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: -f flag is required")
		fs.Usage()
		os.Exit(1)
	}

	topo, err := haasctl.LoadTopology(*file)
	if err != nil {
		fatal(err)
	}

	cfg := loadConfig()
	if topo.APIURL != "" {
		cfg.APIURL = topo.APIURL
	}
	if topo.APIKey != "" {
		cfg.APIKey = topo.APIKey
	}
	if err := cfg.Validate("haasctl"); err != nil {
		fatal(err)
	}

	if err := haasctl.Apply(haasctl.NewClient(cfg.APIURL, cfg.APIKey), topo, *yes, os.Stdout); err != nil {
		fatal(err)
	}
}

func cmdAction(action string, args []string) {
	fs := flag.NewFlagSet(action, flag.ExitOnError)
	herd := fs.String("herd", "", "Herd name (required)")
	hosts := fs.String("hosts", "", "Comma-separated hostnames (default: every instance of the herd)")
	yes := fs.Bool("yes", false, "Confirm promote and demote without review")
	fs.Parse(args)

	if *herd == "" {
		fmt.Fprintf(os.Stderr, "Usage: haasctl %s -herd <name> [-hosts h1,h2] [-yes]\n", action)
		os.Exit(1)
	}

	kind, err := model.ParseActionKind(action)
	if err != nil {
		fatal(err)
	}

	cfg := loadConfig()
	if err := cfg.Validate("haasctl"); err != nil {
		fatal(err)
	}

	opts := haasctl.ActionOptions{Action: kind, Herd: *herd, Confirm: *yes}
	if *hosts != "" {
		opts.Hosts = strings.Split(*hosts, ",")
	}

	report, err := haasctl.RunAction(haasctl.NewClient(cfg.APIURL, cfg.APIKey), opts, os.Stdout)
	if err != nil {
		fatal(err)
	}
	if report != nil && report.Failed > 0 {
		os.Exit(2)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	return cfg
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  haasctl apply -f <topology.yaml> [-yes]
  haasctl <start|stop|restart|reload|rebuild> -herd <name> [-hosts h1,h2]
  haasctl <promote|demote> -herd <name> [-hosts h1,h2] [-yes]

Commands:
  apply      Register environments, servers, herds and instances from a YAML file
  start      Start instances
  stop       Stop instances (fast shutdown)
  restart    Stop then start instances
  reload     Reload configuration files
  rebuild    Recreate replicas from a base backup of their master
  promote    Promote replicas to read/write
  demote     Turn primaries into replicas of their herd primary

Environment:
  HAAS_API_URL   API base URL (default: http://localhost:8090)
  HAAS_API_KEY   API key`)
}
