package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/jrsteele09/fnb-console/auth"
	"github.com/jrsteele09/fnb-console/fnb"
)

func newLoginCommand() *Command {
	cmd := &Command{
		Name:        "login",
		Usage:       "login [-u user] [-client name]",
		Description: "Log in and store the session",
		Flags:       flag.NewFlagSet("login", flag.ContinueOnError),
		Run:         runLogin,
	}
	cmd.Flags.String("u", "", "Username")
	cmd.Flags.String("p", "", "Password (prompted when empty)")
	cmd.Flags.String("client", "", "Client account username")
	return cmd
}

func runLogin(ctx context.Context, app *App, args []string) error {
	cmd := newLoginCommand()
	cmd.Flags.SetOutput(app.out)
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	creds := auth.Credentials{
		Username:       cmd.Flags.Lookup("u").Value.String(),
		Password:       cmd.Flags.Lookup("p").Value.String(),
		ClientUsername: cmd.Flags.Lookup("client").Value.String(),
	}
	var err error
	if creds.Username == "" {
		if creds.Username, err = app.prompt("Username: "); err != nil {
			return err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = app.prompt("Password: "); err != nil {
			return err
		}
	}

	if err := app.Session.Login(ctx, creds); err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Logged in as %s (%s)\n", app.Session.Tenant().DisplayName(), app.Session.Tenant().GetClientUsername())
	return nil
}

func newLogoutCommand() *Command {
	return &Command{
		Name:        "logout",
		Usage:       "logout",
		Description: "End the session on the server and locally",
		Run: func(ctx context.Context, app *App, _ []string) error {
			if err := app.Session.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(app.out, "Logged out")
			return nil
		},
	}
}

func newWhoAmICommand() *Command {
	return &Command{
		Name:        "whoami",
		Usage:       "whoami",
		Description: "Show the logged in user and client account",
		Run:         runWhoAmI,
	}
}

func runWhoAmI(_ context.Context, app *App, _ []string) error {
	if !app.Session.IsAuthenticated() {
		fmt.Fprintln(app.out, "Not logged in")
		return nil
	}
	tenant := app.Session.Tenant()
	fmt.Fprintf(app.out, "User:        %s\n", tenant.DisplayName())
	fmt.Fprintf(app.out, "Client:      %s (id %d)\n", tenant.GetClientUsername(), tenant.ClientID)
	if tenant.Alias != "" {
		fmt.Fprintf(app.out, "Alias:       %s\n", tenant.Alias)
	}
	if expiresIn, ok := app.Session.ExpiresIn(); ok {
		if expiresIn > 0 {
			fmt.Fprintf(app.out, "Token:       expires in %s\n", expiresIn.Round(time.Second))
		} else {
			fmt.Fprintln(app.out, "Token:       expired, refreshed on next request")
		}
	}
	perms := app.Session.Permissions()
	names := make([]string, 0, len(perms))
	for name := range perms {
		names = append(names, name)
	}
	slices.Sort(names)
	fmt.Fprintf(app.out, "Permissions: %s\n", strings.Join(names, ", "))
	return nil
}

func newRefreshCommand() *Command {
	return &Command{
		Name:        "refresh",
		Usage:       "refresh",
		Description: "Exchange the refresh token for a new access token",
		Run: func(ctx context.Context, app *App, _ []string) error {
			if err := app.Session.Refresh(ctx); err != nil {
				return err
			}
			fmt.Fprintln(app.out, "Token refreshed")
			return nil
		},
	}
}

func newGetCommand() *Command {
	return &Command{
		Name:        "get",
		Usage:       "get <path>",
		Description: "GET a path of the F&B API and print the JSON response",
		Run:         runGet,
	}
}

func runGet(ctx context.Context, app *App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: get <path>")
	}
	path, query, err := splitPath(args[0])
	if err != nil {
		return err
	}
	resp, err := app.Data.Get(ctx, path, query)
	if err != nil {
		return err
	}
	return printJSON(app.out, resp.Body)
}

func newListCommand() *Command {
	cmd := &Command{
		Name:        "list",
		Usage:       "list <resource> [key=value...]",
		Description: "List a resource collection, optionally filtered",
		Run:         runList,
	}
	return cmd
}

func runList(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: list <resource> [key=value...]")
	}
	resource, err := app.FnB.Records(args[0])
	if err != nil {
		return err
	}

	params := url.Values{}
	for _, arg := range args[1:] {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return fmt.Errorf("filter %q is not key=value", arg)
		}
		params.Add(key, value)
	}

	records, err := resource.List(ctx, params)
	if err != nil {
		return err
	}
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(app.out, string(line))
	}
	fmt.Fprintf(app.out, "%d %s\n", len(records), args[0])
	return nil
}

func newResourcesCommand() *Command {
	return &Command{
		Name:        "resources",
		Usage:       "resources",
		Description: "List the resource names accepted by list",
		Run: func(_ context.Context, app *App, _ []string) error {
			for _, name := range fnb.Names() {
				fmt.Fprintf(app.out, "%-22s %s\n", name, fnb.ResourceNames[name])
			}
			return nil
		},
	}
}

// splitPath separates an API path from its query string.
func splitPath(raw string) (string, url.Values, error) {
	path, rawQuery, _ := strings.Cut(raw, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", nil, fmt.Errorf("invalid query %q: %w", rawQuery, err)
	}
	if rest, ok := strings.CutPrefix(path, "/api/"); ok {
		path = "/" + rest
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path, query, nil
}

func printJSON(w io.Writer, body []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		_, err = w.Write(body)
		return err
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}
