// Command dashboard is the terminal client of the stock data API.
//
// Commands, one per line:
//
//	n <kind>           next page of price|volume|ma|rsi
//	p <kind>           previous page
//	r                  refresh from the API (resets every carousel)
//	w <user_id>        show a user's watchlist
//	login <name|email> log in and show the watchlist
//	companies          list companies and their ids
//	register <username> <email> <company_id>...
//	                   create a user watching those companies
//	q                  quit
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guttosm/stockdash/internal/dashboard"
	"github.com/guttosm/stockdash/internal/logger"
)

var errQuit = errors.New("quit")

func main() {
	apiURL := flag.String("api", "http://localhost:3000", "stock data API base URL")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	refresh := flag.Duration("refresh", 0, "auto refresh interval (0 disables)")
	flag.Parse()

	logger.InitWithWriter(os.Stderr)
	log := logger.With("dashboard")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctl := dashboard.NewController(dashboard.NewClient(*apiURL, *timeout))
	if err := ctl.Refresh(ctx); err != nil {
		log.Error().Err(err).Str("api", *apiURL).Msg("initial fetch failed")
	}
	ctl.Render(os.Stdout)

	var ticks <-chan time.Time
	if *refresh > 0 {
		t := time.NewTicker(*refresh)
		defer t.Stop()
		ticks = t.C
	}

	if err := run(ctx, ctl, os.Stdin, os.Stdout, ticks); err != nil && !errors.Is(err, errQuit) {
		log.Error().Err(err).Msg("dashboard stopped")
		os.Exit(1)
	}
}

// run reads commands from in until EOF, "q" or ctx is done. Every refresh and
// every write to out happens on this goroutine; ticks (nil disables) trigger auto refresh.
func run(ctx context.Context, ctl *dashboard.Controller, in io.Reader, out io.Writer, ticks <-chan time.Time) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "> ")
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
			if err := ctl.Refresh(ctx); err != nil {
				logger.L().Warn().Err(err).Msg("auto refresh failed")
				fmt.Fprintf(out, "\nerror: %v\n", err)
				continue
			}
			fmt.Fprintln(out)
			ctl.Render(out)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := execute(ctx, ctl, line, out)
			switch {
			case errors.Is(err, errQuit):
				return err
			case err != nil:
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}

func execute(ctx context.Context, ctl *dashboard.Controller, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "q", "quit", "exit":
		return errQuit
	case "r", "refresh":
		if err := ctl.Refresh(ctx); err != nil {
			return err
		}
	case "n", "p":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <price|volume|ma|rsi>", cmd)
		}
		kind, err := dashboard.ParseKind(args[0])
		if err != nil {
			return err
		}
		move := ctl.Next
		if cmd == "p" {
			move = ctl.Prev
		}
		if _, err := move(kind); err != nil {
			return err
		}
	case "w":
		if len(args) != 1 {
			return errors.New("usage: w <user_id>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return errors.New("user_id must be a positive integer")
		}
		if err := ctl.LoadWatchlist(ctx, id); err != nil {
			return err
		}
	case "login":
		if len(args) != 1 {
			return errors.New("usage: login <username|email>")
		}
		if _, err := ctl.Login(ctx, args[0]); err != nil {
			return err
		}
	case "companies":
		list, err := ctl.Companies(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSYMBOL\tNAME")
		for _, c := range list {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", c.CompanyID, c.Symbol, c.Name)
		}
		return tw.Flush()
	case "register":
		if len(args) < 3 {
			return errors.New("usage: register <username> <email> <company_id>...")
		}
		ids := make([]int64, 0, len(args)-2)
		for _, a := range args[2:] {
			id, err := strconv.ParseInt(a, 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("company id %q must be a positive integer", a)
			}
			ids = append(ids, id)
		}
		id, err := ctl.Register(ctx, args[0], args[1], ids)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "registered user %d\n", id)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	ctl.Render(out)
	return nil
}
