package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"pet-adoption-portal/internal/apiclient"
	"pet-adoption-portal/internal/config"
	"pet-adoption-portal/internal/logger"
	"pet-adoption-portal/internal/model"
	"pet-adoption-portal/internal/repository"
	"pet-adoption-portal/internal/service"
	"pet-adoption-portal/internal/session"
	"pet-adoption-portal/pkg/apierror"
)

// profileID keys the single local session kept by the CLI.
const profileID = "default"

type options struct {
	command  string
	email    string
	password string
	status   string
}

func main() {
	var opts options
	flag.StringVar(&opts.command, "cmd", "", "command to run: login, logout, whoami, animals")
	flag.StringVar(&opts.email, "email", "", "account email (login)")
	flag.StringVar(&opts.password, "password", "", "account password (login; defaults to PETCTL_PASSWORD)")
	flag.StringVar(&opts.status, "status", "available", "animals filter: available, adopted or all")
	flag.Parse()

	if opts.password == "" {
		opts.password = os.Getenv("PETCTL_PASSWORD")
	}

	cfg, err := config.LoadCLI()
	if err != nil {
		fmt.Fprintln(os.Stderr, "petctl:", err)
		os.Exit(2)
	}
	slog.SetDefault(logger.New(os.Stderr, cfg.LogLevel, "pretty"))

	repo, err := repository.OpenSQLiteTokenRepository(cfg.TokenDB)
	if err != nil {
		fmt.Fprintln(os.Stderr, "petctl:", err)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := apiclient.New(apiclient.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout})
	if err != nil {
		fmt.Fprintln(os.Stderr, "petctl:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(client, session.NewScoped(repo, profileID), os.Stdout)
	if err := c.run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "petctl:", apierror.MessageOf(err, err.Error()))
		os.Exit(1)
	}
}

type cli struct {
	client *apiclient.Client
	tokens session.TokenStore
	auth   *service.AuthService
	out    io.Writer
}

func newCLI(client *apiclient.Client, tokens session.TokenStore, out io.Writer) *cli {
	bound := client.WithTokens(tokens)
	return &cli{
		client: bound,
		tokens: tokens,
		auth:   service.NewAuthService(bound),
		out:    out,
	}
}

func (c *cli) run(ctx context.Context, opts options) error {
	switch strings.ToLower(opts.command) {
	case "login":
		if err := c.auth.Login(ctx, c.tokens, opts.email, opts.password); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "logged in")
		return nil
	case "logout":
		if err := c.auth.Logout(ctx, c.tokens); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "logged out")
		return nil
	case "whoami":
		return c.whoami(ctx)
	case "animals":
		return c.animals(ctx, opts.status)
	case "":
		return errors.New("missing -cmd")
	default:
		return fmt.Errorf("unknown command %q", opts.command)
	}
}

func (c *cli) whoami(ctx context.Context) error {
	if !c.tokens.IsAuthenticated(ctx) {
		return errors.New("not logged in")
	}
	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	return nil
}

func (c *cli) animals(ctx context.Context, status string) error {
	var (
		animals []model.Animal
		err     error
	)
	switch strings.ToLower(status) {
	case "", "available":
		animals, err = c.client.ListAvailableAnimals(ctx)
	case "adopted":
		animals, err = c.client.ListAdoptedAnimals(ctx)
	case "all":
		animals, err = c.client.ListAnimals(ctx)
	default:
		return fmt.Errorf("%w: status must be available, adopted or all", model.ErrInvalidInput)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBREED\tAGE\tSEX\tSIZE\tADOPTED")
	for _, a := range animals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%t\n", a.ID, a.Name, a.Breed, a.Age, a.Sex, a.Size, a.Adopted)
	}
	return tw.Flush()
}
