// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - login, signup, logout and whoami.
//
// Examples:
//   chatbot signup --name "Ada Lovelace" --email ada@example.com
//   chatbot login --email ada@example.com
//   chatbot login --no-remember
//   chatbot whoami --json
//   chatbot logout
//
// Passwords are always read from stdin, without echo on a terminal, so they
// never appear in shell history.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/jeranaias/chatbot-tui/internal/auth"
)

var authBoolFlags = []string{"remember", "no-remember"}

// HandleLogin logs in with --email (or a prompt) and a password from stdin.
func HandleLogin(env *Env, args Args) error {
	p := NewArgParser(args.Raw, authBoolFlags...)

	var form auth.Form
	var err error
	if form.Email, err = valueOrPrompt(env, p.Flag("email"), "Email: "); err != nil {
		return err
	}
	if form.Password, err = env.readSecret("Password: "); err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	remember := rememberChoice(env, p)
	sess, err := env.Auth.Login(form, remember)
	if err != nil {
		return err
	}
	return printSession(env, args, "login", sess, "Welcome back, %s!")
}

// HandleSignup registers an account and logs it in.
func HandleSignup(env *Env, args Args) error {
	p := NewArgParser(args.Raw, authBoolFlags...)

	var form auth.Form
	var err error
	if form.Name, err = valueOrPrompt(env, p.Flag("name"), "Full Name: "); err != nil {
		return err
	}
	if form.Email, err = valueOrPrompt(env, p.Flag("email"), "Email: "); err != nil {
		return err
	}
	if form.Password, err = env.readSecret("Password: "); err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if form.ConfirmPassword, err = env.readSecret("Confirm Password: "); err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	remember := rememberChoice(env, p)
	sess, err := env.Auth.Signup(form, remember)
	if err != nil {
		return err
	}
	return printSession(env, args, "signup", sess, "Account created. Welcome, %s!")
}

// HandleLogout removes the session record. Logging out while logged out is
// not an error.
func HandleLogout(env *Env, args Args) error {
	sess, err := env.Auth.Current()
	wasLoggedIn := err == nil && sess != nil

	return OutputJSON(env.Out, args.JSON, "logout", func() (interface{}, error) {
		if err := env.Auth.Logout(); err != nil {
			return nil, err
		}
		env.Chat.Clear()
		if !args.JSON && !args.Quiet {
			if wasLoggedIn {
				fmt.Fprintf(env.Out, "%s Logged out.\n", RenderStatus("ok"))
			} else {
				fmt.Fprintln(env.Out, "Not logged in.")
			}
		}
		return map[string]bool{"logged_out": wasLoggedIn}, nil
	})
}

// HandleWhoami prints the logged-in user.
func HandleWhoami(env *Env, args Args) error {
	return OutputJSON(env.Out, args.JSON, "whoami", func() (interface{}, error) {
		sess, err := env.RequireSession()
		if err != nil {
			return nil, err
		}
		data := sessionData(sess)
		users, err := env.Auth.Users()
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if u.Email == sess.User.Email {
				created := u.CreatedAt
				data.MemberSince = &created
				break
			}
		}
		if !args.JSON {
			fmt.Fprintf(env.Out, "%s%s\n", RenderLabel("Name"), ValueStyle.Render(data.Name))
			fmt.Fprintf(env.Out, "%s%s\n", RenderLabel("Email"), ValueStyle.Render(data.Email))
			fmt.Fprintf(env.Out, "%s%s\n", RenderLabel("Logged in"), data.LoginTime.Local().Format(time.RFC1123))
			fmt.Fprintf(env.Out, "%s%t\n", RenderLabel("Remembered"), data.RememberMe)
			if data.MemberSince != nil {
				fmt.Fprintf(env.Out, "%s%s\n", RenderLabel("Member since"), data.MemberSince.Local().Format("2006-01-02"))
			}
		}
		return data, nil
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func valueOrPrompt(env *Env, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	v, err := env.readLine(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return v, nil
}

// rememberChoice applies --remember and --no-remember over the configured
// default.
func rememberChoice(env *Env, p *ArgParser) bool {
	switch {
	case p.BoolFlag("no-remember"):
		return false
	case p.BoolFlag("remember"):
		return true
	default:
		return env.Config.Auth.RememberMeDefault
	}
}

func sessionData(sess *auth.Session) SessionData {
	return SessionData{
		Name:       sess.User.Name,
		Email:      sess.User.Email,
		LoginTime:  sess.LoginTime,
		RememberMe: sess.RememberMe,
	}
}

func printSession(env *Env, args Args, command string, sess *auth.Session, greeting string) error {
	if args.JSON {
		return NewJSONResponse(command, sessionData(sess)).Write(env.Out)
	}
	if !args.Quiet {
		fmt.Fprintf(env.Out, "%s %s\n", RenderStatus("ok"), fmt.Sprintf(greeting, sess.User.Name))
	}
	if !sess.RememberMe {
		fmt.Fprintln(env.Err, WarningStyle.Render("Session not remembered: it ends when this process exits."))
	}
	return nil
}
