// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and top-level handlers for chatbot.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdSignup
	CmdLogout
	CmdWhoami
	CmdChat
	CmdAsk
	CmdUpload
	CmdReset
	CmdHistory
	CmdStatus
	CmdConfig
	CmdDevServer
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandStrings = map[Command]string{
	CmdTUI:       "tui",
	CmdLogin:     "login",
	CmdSignup:    "signup",
	CmdLogout:    "logout",
	CmdWhoami:    "whoami",
	CmdChat:      "chat",
	CmdAsk:       "ask",
	CmdUpload:    "upload",
	CmdReset:     "reset",
	CmdHistory:   "history",
	CmdStatus:    "status",
	CmdConfig:    "config",
	CmdDevServer: "devserver",
	CmdVersion:   "version",
	CmdHelp:      "help",
}

func (c Command) String() string {
	if s, ok := commandStrings[c]; ok {
		return s
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Verbose    bool
	Quiet      bool
	JSON       bool
	ConfigFile string // --config PATH replaces the default config lookup
	BackendURL string // --backend URL overrides backend.url
	SessionID  string // --session ID overrides backend.session_id

	// Command-specific
	Query      string
	Subcommand string

	// Unknown holds the unrecognized command word for CmdUnknown.
	Unknown string

	// Raw holds the arguments after the command word.
	Raw []string
}

const usageText = `chatbot - terminal client for the GenAI PDF chatbot
Version: %s

USAGE:
  chatbot [global flags] [command] [args]

With no command the full-screen interface starts.

ACCOUNT:
  login                   Log in (prompts for anything not given)
      --email EMAIL         Account email
      --no-remember         Keep the session for this process only
  signup                  Create an account and log in
      --name NAME           Full name
      --email EMAIL         Account email
      --no-remember         Keep the session for this process only
  logout                  End the current session
  whoami                  Show the logged-in user

CHAT:
  tui                     Full-screen interface (default)
  chat                    Line-mode chat; end a line with \ to continue it
  ask QUESTION            Send one message and print the reply
      --pdf FILE            Upload FILE before asking
      --raw                 Print the reply as it streams, without markdown
  upload FILE.pdf         Attach a PDF to the backend session
  reset                   Clear the backend session (asks first)
      --confirm             Skip the question
  history                 Show the backend's record of the session
      --export FILE         Save it as Markdown (.md) or JSON (.json)

SYSTEM:
  status                  Session, backend reachability and storage paths
  config show|path|keys   Inspect configuration
  config get KEY          Print one value (dot notation)
  config set KEY VALUE    Change one value and save
  devserver               Run a local stand-in backend
      --addr ADDR           Listen address (default 127.0.0.1:8000)
      --delay MS            Pause between streamed chunks
  version                 Show version information
  help                    Show this help

GLOBAL FLAGS:
  --config PATH           Use this config file
  --backend URL           Backend base URL
  --session ID            Backend session id
  --json                  Machine-readable output where supported
  -q, --quiet             Less output
  -v, --verbose           Log to stderr

ENVIRONMENT:
  CHATBOT_HOME            Config directory (default ~/.chatbot)
  CHATBOT_BACKEND_URL     Backend base URL
  NO_COLOR                Disable colors
`

// PrintUsage writes the help text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "chatbot version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name) and returns the command
// and its arguments.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	word := strings.ToLower(remaining[0])
	remaining, jsonFlag := extractJSONFlag(remaining[1:])
	parsed.JSON = parsed.JSON || jsonFlag
	parsed.Raw = remaining

	switch word {
	case "tui":
		return CmdTUI, parsed
	case "login":
		return CmdLogin, parsed
	case "signup", "register":
		return CmdSignup, parsed
	case "logout":
		return CmdLogout, parsed
	case "whoami":
		return CmdWhoami, parsed
	case "chat":
		return CmdChat, parsed
	case "ask":
		p := NewArgParser(remaining, askBoolFlags...)
		parsed.Query = JoinPositionalArgs(p, 0)
		return CmdAsk, parsed
	case "upload":
		return CmdUpload, parsed
	case "reset":
		return CmdReset, parsed
	case "history":
		return CmdHistory, parsed
	case "status", "s":
		return CmdStatus, parsed
	case "config":
		parsed.Subcommand = NewArgParser(remaining).Subcommand()
		return CmdConfig, parsed
	case "devserver", "serve":
		return CmdDevServer, parsed
	case "version", "-V", "--version":
		return CmdVersion, parsed
	case "help", "-h", "--help":
		return CmdHelp, parsed
	default:
		parsed.Unknown = word
		parsed.Raw = append([]string{word}, remaining...)
		return CmdUnknown, parsed
	}
}

// parseGlobalFlags extracts global flags from the front of args. Parsing
// stops at the first word that is not a global flag so that command flags
// with the same spelling are left alone.
// extractJSONFlag removes --json from the arguments after the command word
// so every command accepts it in either position. Arguments after "--" are
// left alone.
func extractJSONFlag(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	found := false
	for i, arg := range args {
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if arg == "--json" {
			found = true
			continue
		}
		out = append(out, arg)
	}
	return out, found
}

func parseGlobalFlags(args []string) ([]string, Args) {
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")

		takeValue := func() string {
			if hasValue {
				return value
			}
			if i+1 < len(args) {
				i++
				return args[i]
			}
			return ""
		}

		switch name {
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--config":
			parsed.ConfigFile = takeValue()
		case "--backend":
			parsed.BackendURL = takeValue()
		case "--session":
			parsed.SessionID = takeValue()
		default:
			return args[i:], parsed
		}
	}
	return nil, parsed
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleVersion writes version information, as JSON when requested.
func HandleVersion(w io.Writer, args Args) error {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		return NewJSONResponse("version", data).Write(w)
	}
	PrintVersion(w)
	return nil
}

// HandleHelp writes the usage text.
func HandleHelp(w io.Writer) {
	PrintUsage(w)
}

// UnknownCommandError is returned for a command word that is not recognized.
type UnknownCommandError struct {
	Word       string
	Suggestion string
}

func (e *UnknownCommandError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown command %q (did you mean %q?)", e.Word, e.Suggestion)
	}
	return fmt.Sprintf("unknown command %q; run 'chatbot help' for usage", e.Word)
}

// HandleUnknown builds the error for CmdUnknown.
func HandleUnknown(args Args) error {
	return &UnknownCommandError{Word: args.Unknown, Suggestion: SuggestCommand(args.Unknown)}
}
