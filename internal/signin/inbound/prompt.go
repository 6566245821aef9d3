package inbound

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/goknock/internal/pkg/goerror"
	"github.com/shandysiswandi/goknock/internal/signin/entity"
	"github.com/shandysiswandi/goknock/internal/signin/usecase"
)

type uc interface {
	RequestCode(ctx context.Context, in usecase.RequestCodeInput) error
	VerifyCode(ctx context.Context, in usecase.VerifyCodeInput) error
	ResendCode(ctx context.Context) error
	Back(ctx context.Context)

	Phase() entity.Phase
	Countdown() int32
}

// Prompt is the interactive sign-in loop: it reads lines, drives the flow,
// and leaves all rendering of feedback to the Console sinks.
type Prompt struct {
	uc      uc
	in      *bufio.Scanner
	out     io.Writer
	console *Console
}

func NewPrompt(in io.Reader, out io.Writer, console *Console, uc uc) *Prompt {
	return &Prompt{
		uc:      uc,
		in:      bufio.NewScanner(in),
		out:     out,
		console: console,
	}
}

// Run drives the flow until the user signs in, quits, or input ends.
func (p *Prompt) Run(ctx context.Context) error {
	fmt.Fprintln(p.out, "Sign in with your phone number.")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch p.uc.Phase() {
		case entity.PhaseVerifyingOTP:
			done, err := p.stepVerify(ctx)
			if done {
				return err
			}

		default:
			done := p.stepRequest(ctx)
			if done {
				return nil
			}
		}
	}
}

// stepRequest collects phone and full name and triggers the code request.
// It reports true when input ended.
func (p *Prompt) stepRequest(ctx context.Context) bool {
	phone, ok := p.read("Phone number: ")
	if !ok {
		return true
	}
	if phone == "" {
		return false
	}

	fullName, ok := p.read("Full name (optional): ")
	if !ok {
		return true
	}

	// Feedback comes through the console sinks.
	_ = p.uc.RequestCode(ctx, usecase.RequestCodeInput{Phone: phone, FullName: fullName})

	return false
}

// stepVerify collects one line in the verification phase: a code or one of
// the /resend, /back, /quit commands. It reports true when the loop should
// end, with a nil error on a completed sign-in.
func (p *Prompt) stepVerify(ctx context.Context) (bool, error) {
	line, ok := p.read(p.verifyLabel())
	if !ok {
		return true, nil
	}

	switch line {
	case "":
		return false, nil

	case "/quit":
		return true, nil

	case "/back":
		p.uc.Back(ctx)
		return false, nil

	case "/resend":
		if err := p.uc.ResendCode(ctx); err != nil {
			p.renderRejection(err)
		}
		return false, nil

	default:
		if err := p.uc.VerifyCode(ctx, usecase.VerifyCodeInput{OTP: line}); err != nil {
			return false, nil
		}
		return true, nil
	}
}

func (p *Prompt) verifyLabel() string {
	remaining := p.uc.Countdown()
	if remaining > 0 {
		unit := lo.Ternary(remaining == 1, "second", "seconds")
		return fmt.Sprintf("Code [/back /quit] (resend in %d %s): ", remaining, unit)
	}

	return "Code [/resend /back /quit]: "
}

// renderRejection prints the business reason a local precondition refused an
// action. Field and server errors already reached the console sinks.
func (p *Prompt) renderRejection(err error) {
	var gerr *goerror.Error
	if errors.As(err, &gerr) && gerr.Type() == goerror.TypeBusiness {
		fmt.Fprintln(p.out, gerr.Msg())
	}
}

func (p *Prompt) read(label string) (string, bool) {
	fmt.Fprint(p.out, label)

	if !p.in.Scan() {
		return "", false
	}

	return strings.TrimSpace(p.in.Text()), true
}
