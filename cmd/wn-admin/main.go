// Command wn-admin manages admin accounts directly against the configured
// record store, so the first admin can be created without the HTTP API.
//
//	wn-admin create -username root -nickname Keeper [-password ...] [-role admin] [-inactive]
//	wn-admin list
//	wn-admin activate -id 3
//	wn-admin deactivate -id 3
//
// The store is chosen the same way as the server: .env, config.yaml and
// environment variables. -password falls back to WN_ADMIN_PASSWORD.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/auth"
	"github.com/sakif/whispering-network/internal/config"
	"github.com/sakif/whispering-network/internal/server"
	"github.com/sakif/whispering-network/internal/service"
)

const usage = `usage: wn-admin <command> [flags]

commands:
  create      create an admin account
  list        list admin accounts
  activate    mark an admin active (-id)
  deactivate  mark an admin inactive (-id)
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "could not read .env:", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger := config.NewLogger(config.LoggingConfig{Level: "warn", Format: cfg.Logging.Format}, os.Stderr)

	store, err := server.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer store.Close()

	admins := service.NewAdminService(store, auth.NewPasswordService(cfg.Auth.BcryptCost), logger)
	if err := run(ctx, admins, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		store.Close()
		os.Exit(2)
	}
}

func run(ctx context.Context, admins *service.AdminService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "create":
		return runCreate(ctx, admins, rest, out)
	case "list":
		return runList(ctx, admins, out)
	case "activate":
		return runSetActive(ctx, admins, rest, out, true)
	case "deactivate":
		return runSetActive(ctx, admins, rest, out, false)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

func runCreate(ctx context.Context, admins *service.AdminService, args []string, out io.Writer) error {
	fset := flag.NewFlagSet("create", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	username := fset.String("username", "", "login name")
	nickname := fset.String("nickname", "", "name shown in the recipient list")
	password := fset.String("password", "", "password (default $WN_ADMIN_PASSWORD)")
	role := fset.String("role", "", "role (default admin)")
	inactive := fset.Bool("inactive", false, "create the account deactivated")
	if err := fset.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		*password = os.Getenv("WN_ADMIN_PASSWORD")
	}
	active := !*inactive

	a, err := admins.Create(ctx, service.CreateAdminInput{
		Username: *username,
		Password: *password,
		Nickname: *nickname,
		Role:     *role,
		IsActive: &active,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created admin %d (%s, %q)\n", a.ID, a.Username, a.Nickname)
	return nil
}

func runList(ctx context.Context, admins *service.AdminService, out io.Writer) error {
	list, err := admins.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tNICKNAME\tROLE\tACTIVE\tCREATED")
	for _, a := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n",
			a.ID, a.Username, a.Nickname, a.Role, a.IsActive, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func runSetActive(ctx context.Context, admins *service.AdminService, args []string, out io.Writer, active bool) error {
	fset := flag.NewFlagSet("set-active", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	id := fset.Int64("id", 0, "admin id")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *id <= 0 && fset.NArg() == 1 {
		// Accept "wn-admin activate 3" as well as "-id 3".
		if n, err := strconv.ParseInt(fset.Arg(0), 10, 64); err == nil {
			*id = n
		}
	}
	if *id <= 0 {
		return errors.New("an admin id is required (-id)")
	}

	a, err := admins.SetActive(ctx, *id, active)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return fmt.Errorf("no admin with id %d", *id)
		}
		return err
	}
	fmt.Fprintf(out, "admin %d (%s) active=%t\n", a.ID, a.Username, a.IsActive)
	return nil
}
