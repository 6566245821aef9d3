package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/shandysiswandi/goknock/internal/devserver"
	"github.com/shandysiswandi/goknock/internal/pkg/goerror"
)

const usageText = `goknock - phone OTP sign-in client

Usage:
  goknock login            sign in with a one-time code sent to your phone
  goknock whoami           show the stored session identity
  goknock logout           discard the stored session
  goknock dev [-addr ...]  run a local fake identity API
  goknock help             show this help

Config file: $GOKNOCK_CONFIG or ~/.config/goknock/config.yaml
`

// Run dispatches the subcommand and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.stderr, usageText)
		return 2
	}

	cmd, rest := args[0], args[1:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Fprint(a.stdout, usageText)
		return 0
	}

	a.initInstrument(cmd == "dev")
	a.initSealer()

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		a.Stop(stopCtx)
	}()

	var err error
	switch cmd {
	case "login":
		err = a.runLogin(ctx)
	case "whoami":
		err = a.runWhoami(ctx)
	case "logout":
		err = a.runLogout(ctx)
	case "dev":
		err = a.runDev(ctx, rest)
	default:
		fmt.Fprintf(a.stderr, "unknown command %q\n\n", cmd)
		fmt.Fprint(a.stderr, usageText)
		return 2
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}

		var gerr *goerror.Error
		if errors.As(err, &gerr) && gerr.Type() == goerror.TypeBusiness {
			fmt.Fprintln(a.stderr, gerr.Msg())
		} else {
			fmt.Fprintln(a.stderr, "Error:", err)
		}
		return 1
	}

	return 0
}

func (a *App) runLogin(ctx context.Context) error {
	mod, err := a.signinModule()
	if err != nil {
		return err
	}
	defer mod.Flow.Close() //nolint:errcheck // close never fails

	return mod.Prompt.Run(ctx)
}

func (a *App) runWhoami(ctx context.Context) error {
	mod, err := a.signinModule()
	if err != nil {
		return err
	}

	out, err := mod.Flow.Whoami(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Name:    %s\n", out.FullName)
	fmt.Fprintf(a.stdout, "Phone:   %s\n", out.Phone)
	fmt.Fprintf(a.stdout, "User ID: %d\n", out.UserID)

	expires := out.ExpiresAt.Format(time.RFC3339)
	if out.Expired {
		expires += " (expired)"
	}
	fmt.Fprintf(a.stdout, "Expires: %s\n", expires)

	return nil
}

func (a *App) runLogout(ctx context.Context) error {
	mod, err := a.signinModule()
	if err != nil {
		return err
	}

	if err := mod.Flow.Logout(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "Signed out.")

	return nil
}

func (a *App) runDev(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dev", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	addr := fs.String("addr", a.config.GetString("dev.address"), "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv, err := devserver.New(devserver.Config{
		Validator: a.validator,
		Clock:     a.clock,
		UUID:      a.uuid,
		OTPTTL:    a.config.GetSecond("dev.otp_ttl_seconds"),
		TokenTTL:  a.config.GetMinute("dev.token_ttl_minutes"),
	})
	if err != nil {
		return err
	}

	return a.serve(ctx, *addr, srv.Handler())
}
