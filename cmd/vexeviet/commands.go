package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/vexeviet/seat-hold/internal/model"
	"github.com/vexeviet/seat-hold/internal/payment"
	"github.com/vexeviet/seat-hold/internal/seathold"
)

var errNoHold = errors.New("no active hold; run 'vexeviet hold' first")

var commands = map[string]command{
	"login": {
		summary: "sign in and keep the access token",
		flags: func(fs *pflag.FlagSet) {
			fs.String("email", "", "account email")
			fs.String("password", "", "account password")
		},
		run: runLogin,
	},
	"logout": {
		summary: "forget the stored access token",
		run: func(ctx context.Context, a *app, _ *pflag.FlagSet) error {
			return a.tokens.Clear(ctx)
		},
	},
	"routes": {
		summary: "list routes on sale",
		run:     runRoutes,
	},
	"availability": {
		summary: "show free seats of a departure",
		flags: func(fs *pflag.FlagSet) {
			fs.String("route", "", "route id")
			fs.String("date", "", "departure date YYYY-MM-DD")
			fs.Bool("fresh", false, "bypass every cache")
		},
		run: runAvailability,
	},
	"hold": {
		summary: "hold seats, replacing any current hold",
		flags: func(fs *pflag.FlagSet) {
			fs.String("route", "", "route id")
			fs.String("date", "", "departure date YYYY-MM-DD")
			fs.StringSlice("seats", nil, "comma separated seat ids, e.g. A1,A2")
		},
		run: runHold,
	},
	"status": {
		summary: "show the current hold and time left",
		run:     runStatus,
	},
	"watch": {
		summary: "follow the countdown until the hold ends",
		run:     runWatch,
	},
	"release": {
		summary: "give the held seats back",
		run: func(ctx context.Context, a *app, _ *pflag.FlagSet) error {
			if err := a.ctrl.Release(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "hold released")
			return nil
		},
	},
	"book": {
		summary: "attach passenger details to the current hold",
		flags: func(fs *pflag.FlagSet) {
			fs.String("name", "", "passenger full name")
			fs.String("phone", "", "passenger phone number")
			fs.String("email", "", "passenger email (optional)")
		},
		run: runBook,
	},
	"pay": {
		summary: "start paying for a booking",
		flags: func(fs *pflag.FlagSet) {
			fs.String("booking", "", "booking id from 'vexeviet book'")
			fs.Int64("amount", 0, "amount due in VND")
			fs.String("method", string(model.MethodVNPay), "vnpay, momo or zalopay")
		},
		run: runPay,
	},
	"parse-return": {
		summary: "normalise a payment gateway return URL",
		run:     runParseReturn,
		offline: true,
	},
}

func runLogin(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	email, _ := fs.GetString("email")
	password, _ := fs.GetString("password")
	res, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(ctx, res.Access.Token, res.Access.Expires); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Fprintf(a.out, "signed in as %s until %s\n", res.User.Email, res.Access.Expires.Local().Format("15:04"))
	return nil
}

func runRoutes(ctx context.Context, a *app, _ *pflag.FlagSet) error {
	routes, err := a.api.ListRoutes(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFROM\tTO\tOPERATOR\tDEPARTS\tPRICE")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", r.ID, r.Origin, r.Destination, r.Operator, r.DepartsAt, r.Price)
	}
	return tw.Flush()
}

func runAvailability(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	routeID, _ := fs.GetString("route")
	date, _ := fs.GetString("date")
	fresh, _ := fs.GetBool("fresh")
	if routeID == "" || date == "" {
		return errors.New("--route and --date are required")
	}
	var (
		snap model.AvailabilitySnapshot
		err  error
	)
	if fresh {
		snap, err = a.ctrl.RefreshAvailability(ctx, routeID, date)
	} else {
		snap, err = a.api.GetSeatAvailability(ctx, routeID, date)
	}
	if err != nil {
		return err
	}
	free := snap.Free()
	fmt.Fprintf(a.out, "%s %s: %d of %d seats free\n", snap.RouteID, snap.DepartureDate, len(free), len(snap.Seats))
	fmt.Fprintln(a.out, strings.Join(free, " "))
	return nil
}

func runHold(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	routeID, _ := fs.GetString("route")
	date, _ := fs.GetString("date")
	seats, _ := fs.GetStringSlice("seats")
	h, err := a.ctrl.Hold(ctx, model.HoldRequest{RouteID: routeID, DepartureDate: date, Seats: normaliseSeats(seats)})
	if err != nil {
		var conflict *model.HoldConflictError
		if errors.As(err, &conflict) {
			fmt.Fprintf(a.out, "seats already taken: %s\n", strings.Join(conflict.Unavailable, ", "))
		}
		return err
	}
	fmt.Fprintf(a.out, "held %s on %s %s (hold %s)\n", strings.Join(h.Seats, ", "), h.RouteID, h.DepartureDate, h.HoldID)
	fmt.Fprintf(a.out, "time left %s\n", a.ctrl.Countdown().Display())
	return nil
}

func runStatus(_ context.Context, a *app, _ *pflag.FlagSet) error {
	printStatus(a, a.ctrl.Snapshot())
	return nil
}

func printStatus(a *app, s seathold.Snapshot) {
	if !s.HasHold {
		fmt.Fprintln(a.out, "no active hold")
		return
	}
	fmt.Fprintf(a.out, "%s: %s on %s %s\n", s.State, strings.Join(s.Hold.Seats, ", "), s.Hold.RouteID, s.Hold.DepartureDate)
	line := "time left " + s.Countdown.Display()
	if s.Countdown.IsExpired {
		line = "hold expired, pick your seats again"
	} else if s.Countdown.Urgent() {
		line += " (hurry!)"
	}
	fmt.Fprintln(a.out, line)
}

// runWatch prints the countdown every tick until the hold expires, is
// released elsewhere in this process, or the user interrupts.
func runWatch(ctx context.Context, a *app, _ *pflag.FlagSet) error {
	if _, ok := a.ctrl.Current(); !ok || a.ctrl.IsExpired() {
		printStatus(a, a.ctrl.Snapshot())
		return nil
	}
	done := make(chan struct{})
	var once sync.Once
	a.ctrl.OnExpire(func(h model.Hold) {
		fmt.Fprintf(a.out, "hold %s expired, seats %s are free again\n", h.HoldID, strings.Join(h.Seats, ", "))
		once.Do(func() { close(done) })
	})
	unsubscribe := a.ctrl.Subscribe(func(s seathold.Snapshot) {
		switch s.Cause {
		case seathold.CauseTick:
			fmt.Fprintf(a.out, "\r%s", s.Countdown.Display())
		case seathold.CauseReleased, seathold.CauseCleared:
			once.Do(func() { close(done) })
		}
	})
	defer unsubscribe()

	select {
	case <-done:
	case <-ctx.Done():
		fmt.Fprintln(a.out)
	}
	return nil
}

func runBook(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	h, ok := a.ctrl.Current()
	if !ok || a.ctrl.IsExpired() {
		return errNoHold
	}
	name, _ := fs.GetString("name")
	phone, _ := fs.GetString("phone")
	email, _ := fs.GetString("email")
	b, err := a.api.CreateBooking(ctx, model.BookingRequest{
		HoldID:    h.HoldID,
		Passenger: model.Passenger{Name: name, Phone: phone, Email: email},
	})
	if errors.Is(err, model.ErrHoldNotFound) {
		a.ctrl.ClearHold()
		return fmt.Errorf("hold is gone, pick your seats again: %w", err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "booking %s: %d VND for %s\n", b.BookingID, b.TotalPrice, strings.Join(b.Seats, ", "))
	fmt.Fprintf(a.out, "pay with: vexeviet pay --booking %s --amount %d --method vnpay\n", b.BookingID, b.TotalPrice)
	return nil
}

func runPay(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	h, ok := a.ctrl.Current()
	if !ok {
		return errNoHold
	}
	bookingID, _ := fs.GetString("booking")
	amount, _ := fs.GetInt64("amount")
	method, _ := fs.GetString("method")

	orch := payment.NewOrchestrator(a.api, a.ctrl, printRedirector{out: a.out}, a.log)
	draft := model.BookingDraft{SelectedSeats: h.Seats, TotalPrice: amount}
	co, err := orch.SelectMethod(ctx, bookingID, model.PaymentMethod(strings.ToLower(method)), draft)
	if err != nil {
		return err
	}
	if co.Outcome == payment.OutcomeHoldExpired {
		a.ctrl.ClearHold()
		fmt.Fprintln(a.out, "hold expired before payment, pick your seats again")
		return nil
	}
	fmt.Fprintf(a.out, "transaction %s\n", co.TransactionID)
	return nil
}

func runParseReturn(_ context.Context, a *app, fs *pflag.FlagSet) error {
	if fs.NArg() != 1 {
		return errors.New("usage: vexeviet parse-return <return url>")
	}
	res := payment.ParseGatewayReturnURL(fs.Arg(0))
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// normaliseSeats upper-cases seat ids and drops blanks.
func normaliseSeats(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
