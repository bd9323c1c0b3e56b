package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/nhle/crm-dashboard/internal/model"
)

var (
	configPath string
	debug      bool
)

func main() {
	flag.StringVar(&configPath, "config", model.DefaultConfigPath(), "Path to the config file")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Usage = usage
	flag.Parse()

	command := "tui"
	var args []string
	if flag.NArg() > 0 {
		command = flag.Arg(0)
		args = flag.Args()[1:]
	}

	var err error
	switch command {
	case "tui":
		err = runTUI(args)
	case "login":
		err = runLogin(args)
	case "logout":
		err = runLogout(args)
	case "whoami":
		err = runWhoami(args)
	case "tasks":
		err = runTasks(args)
	case "show":
		err = runShow(args)
	case "start", "resume", "stop", "complete":
		err = runAction(command, args)
	case "progress":
		err = runProgress(args)
	case "assign":
		err = runAssign(args, false)
	case "unassign":
		err = runAssign(args, true)
	case "create":
		err = runCreate(args)
	case "stats":
		err = runStats(args)
	case "time":
		err = runTime(args)
	case "export-time":
		err = runExportTime(args)
	case "inbox":
		err = runInbox(args)
	case "mock-server":
		err = runMockServer(args)
	case "help":
		usage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: crmdash [--config path] [--debug] <command> [args]

Commands:
  tui                              Open the interactive dashboard (default)
  login [--email e] [--password p] [--api url]
                                   Sign in and remember the session
  logout                           Forget the session and the local cache
  whoami                           Show the signed-in user
  tasks [--search s] [--status s] [--priority p] [--cached]
  show [--cached] <id>             Show one task with its tracked time
  start|resume|stop|complete <id>  Run a task action
  progress <id> <percent> <phase>  Update task progress
  assign|unassign <id> <userId>    Manage assignees
  create --title t [--assignee id ...] [--due YYYY-MM-DD]
  stats                            Show task counts by status
  time [--period today|week]       Show tracked time
  export-time [--out file.xlsx]    Export a time report workbook
  inbox [--all] [--read]           List status-change notifications
  mock-server [--addr :5000]       Run a local backend with demo data
`)
}
