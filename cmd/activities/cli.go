package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/mergington/activities/internal/config"
	"github.com/mergington/activities/internal/registry"
)

var (
	serveFn          = serve
	loadConfigFn     = config.Load
	currentVersionFn = currentVersion
	getenvFn         = os.Getenv
)

const (
	cmdHelp       = "help"
	flagHelpShort = "-h"
	flagHelpLong  = "--help"

	envServer        = "ACTIVITIES_SERVER"
	defaultServerURL = "http://127.0.0.1:8000"
)

type commandContext struct {
	stdout io.Writer
	stderr io.Writer
}

func writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func writeln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}

func runCLI(args []string, stdout, stderr io.Writer) int {
	ctx := commandContext{stdout: stdout, stderr: stderr}

	if len(args) == 0 {
		return serveFn()
	}

	switch args[0] {
	case "-v", "--version", "version":
		writef(stdout, "activities version %s\n", currentVersionFn())
		return 0
	case "serve":
		return runServeCommand(ctx, args[1:])
	case "list":
		return runListCommand(ctx, args[1:])
	case "signup":
		return runSignupCommand(ctx, args[1:])
	case "unregister":
		return runUnregisterCommand(ctx, args[1:])
	case cmdHelp, flagHelpShort, flagHelpLong:
		printRootHelp(stdout)
		return 0
	default:
		writef(stderr, "unknown command: %s\n\n", args[0])
		printRootHelp(stderr)
		return 2
	}
}

func runServeCommand(ctx commandContext, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(ctx.stderr)
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		printServeHelp(ctx.stdout)
		return 0
	}
	if fs.NArg() > 0 {
		writef(ctx.stderr, "unexpected argument(s): %s\n", strings.Join(fs.Args(), " "))
		printServeHelp(ctx.stderr)
		return 2
	}
	return serveFn()
}

func runListCommand(ctx commandContext, args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(ctx.stderr)
	server := fs.String("server", serverURL(), "activities server base URL")
	asJSON := fs.Bool("json", false, "print the raw activities JSON")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		printListHelp(ctx.stdout)
		return 0
	}
	if fs.NArg() > 0 {
		writef(ctx.stderr, "unexpected argument(s): %s\n", strings.Join(fs.Args(), " "))
		printListHelp(ctx.stderr)
		return 2
	}

	catalog, err := fetchActivities(context.Background(), *server)
	if err != nil {
		writef(ctx.stderr, "list failed: %v\n", err)
		return 1
	}

	if *asJSON {
		payload, err := json.MarshalIndent(catalog, "", "  ")
		if err != nil {
			writef(ctx.stderr, "encode failed: %v\n", err)
			return 1
		}
		writeln(ctx.stdout, string(payload))
		return 0
	}
	printCatalog(ctx.stdout, catalog)
	return 0
}

func runSignupCommand(ctx commandContext, args []string) int {
	return runMembershipCommand(ctx, "signup", args, signupStudent)
}

func runUnregisterCommand(ctx commandContext, args []string) int {
	return runMembershipCommand(ctx, "unregister", args, unregisterStudent)
}

type membershipFunc func(ctx context.Context, server, activity, email string) (string, error)

func runMembershipCommand(ctx commandContext, name string, args []string, call membershipFunc) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(ctx.stderr)
	activity := fs.String("activity", "", "activity name")
	email := fs.String("email", "", "student email")
	server := fs.String("server", serverURL(), "activities server base URL")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		printMembershipHelp(ctx.stdout, name)
		return 0
	}
	if fs.NArg() > 0 {
		writef(ctx.stderr, "unexpected argument(s): %s\n", strings.Join(fs.Args(), " "))
		printMembershipHelp(ctx.stderr, name)
		return 2
	}
	if strings.TrimSpace(*activity) == "" || strings.TrimSpace(*email) == "" {
		writeln(ctx.stderr, "-activity and -email are required")
		printMembershipHelp(ctx.stderr, name)
		return 2
	}

	message, err := call(context.Background(), *server, *activity, *email)
	if err != nil {
		writef(ctx.stderr, "%s failed: %v\n", name, err)
		return 1
	}
	printNotice(ctx.stdout, message)
	return 0
}

func printCatalog(w io.Writer, catalog registry.Catalog) {
	if len(catalog) == 0 {
		writeln(w, "no activities")
		return
	}
	for i, a := range catalog {
		if i > 0 {
			writeln(w, "")
		}
		printHeading(w, a.Name)
		members := "-"
		if len(a.Participants) > 0 {
			members = strings.Join(a.Participants, ", ")
		}
		printRows(w, []outputRow{
			{Key: "description", Value: a.Description},
			{Key: "schedule", Value: a.Schedule},
			{Key: "enrolled", Value: strconv.Itoa(len(a.Participants)) + "/" + strconv.Itoa(a.MaxParticipants)},
			{Key: "participants", Value: members},
		})
	}
}

func serverURL() string {
	if v := strings.TrimSpace(getenvFn(envServer)); v != "" {
		return v
	}
	return defaultServerURL
}

func printRootHelp(w io.Writer) {
	writeln(w, "Mergington activities command-line interface")
	writeln(w, "")
	writeln(w, "Usage:")
	writeln(w, "  activities [serve]")
	writeln(w, "  activities list [-server URL] [-json]")
	writeln(w, "  activities signup -activity NAME -email EMAIL [-server URL]")
	writeln(w, "  activities unregister -activity NAME -email EMAIL [-server URL]")
	writeln(w, "  activities version")
	writeln(w, "")
	writeln(w, "Commands:")
	writeln(w, "  serve        Start the activities HTTP server (default)")
	writeln(w, "  list         Print every activity and its participants")
	writeln(w, "  signup       Sign a student up for an activity")
	writeln(w, "  unregister   Remove a student from an activity")
	writeln(w, "  version      Print the build version")
	writeln(w, "")
	writef(w, "Client commands talk to $%s (default %s).\n", envServer, defaultServerURL)
}

func printServeHelp(w io.Writer) {
	writeln(w, "Usage:")
	writeln(w, "  activities serve")
	writeln(w, "")
	writeln(w, "Starts the activities server using config file/env defaults.")
}

func printListHelp(w io.Writer) {
	writeln(w, "Usage:")
	writeln(w, "  activities list [-server URL] [-json]")
}

func printMembershipHelp(w io.Writer, name string) {
	writeln(w, "Usage:")
	writef(w, "  activities %s -activity NAME -email EMAIL [-server URL]\n", name)
}

func currentVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		if strings.TrimSpace(bi.Main.Version) != "" && bi.Main.Version != "(devel)" {
			return bi.Main.Version
		}
	}
	return "dev"
}
