package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/masaki/fleetman/internal/auth"
	"github.com/masaki/fleetman/internal/config"
	"github.com/masaki/fleetman/internal/database"
	"github.com/masaki/fleetman/internal/repository"
	"github.com/masaki/fleetman/internal/user"
)

// userCmdTimeout はユーザー管理CLIの1操作あたりのタイムアウト。
const userCmdTimeout = 30 * time.Second

// runUser はユーザー管理CLIを実行する。
// APIを経由せずにユーザーを操作するためのサブコマンドで、
// 最初の管理ユーザーの投入やロックアウト時の復旧に使用する。
//
// 使用例:
//
//	fleetman user create -username alice -password s3cret
//	fleetman user list
//	fleetman user delete -username alice
func runUser(cfg *config.Config, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errors.New("user subcommand required: create, list, delete")
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	userRepo := repository.NewPostgresUserRepo(db)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost, cfg.HashMaxConcurrent)
	svc := user.NewService(userRepo, hasher)

	ctx, cancel := context.WithTimeout(context.Background(), userCmdTimeout)
	defer cancel()

	switch args[0] {
	case "create":
		return runUserCreate(ctx, svc, args[1:], w)
	case "list":
		return runUserList(ctx, svc, w)
	case "delete":
		return runUserDelete(ctx, svc, args[1:], w)
	default:
		return fmt.Errorf("unknown user subcommand: %s", args[0])
	}
}

func runUserCreate(ctx context.Context, svc *user.Service, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("user create", flag.ContinueOnError)
	fs.SetOutput(w)
	username := fs.String("username", "", "username of the new user")
	password := fs.String("password", "", "password of the new user")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" || *password == "" {
		return errors.New("-username and -password are required")
	}

	created, err := svc.Register(ctx, *username, *password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(w, "created user %s (id: %s)\n", created.Username, created.ID)
	return nil
}

func runUserList(ctx context.Context, svc *user.Service, w io.Writer) error {
	users, err := svc.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Username, u.CreatedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "total: %d\n", len(users))
	return nil
}

func runUserDelete(ctx context.Context, svc *user.Service, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("user delete", flag.ContinueOnError)
	fs.SetOutput(w)
	username := fs.String("username", "", "username of the user to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		return errors.New("-username is required")
	}

	if err := svc.DeleteByUsername(ctx, *username); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Fprintf(w, "deleted user %s\n", *username)
	return nil
}
