package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amsilks/amsilks-erp/internal/auth"
)

// UserCreator adds accounts. *auth.Service satisfies it.
type UserCreator interface {
	CreateUser(ctx context.Context, in auth.NewUser) (*auth.User, error)
}

// UserAddOptions defines available flags for the user add command.
type UserAddOptions struct {
	Username string
	Name     string
	Role     string
	Password string
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

// UserAddCommand creates a login. Without --password the password is read
// from the first line of stdin.
func UserAddCommand(ctx context.Context, users UserCreator, opts UserAddOptions) int {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	password := opts.Password
	if password == "" {
		line, err := bufio.NewReader(opts.Stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			_, _ = fmt.Fprintf(opts.Stderr, "user add: read password: %v\n", err)
			return 1
		}
		password = strings.TrimRight(line, "\r\n")
	}
	user, err := users.CreateUser(ctx, auth.NewUser{
		Username: opts.Username,
		Name:     opts.Name,
		Role:     opts.Role,
		Password: password,
	})
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "user add: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(opts.Stdout, "created user %s (id %d, role %s)\n", user.Username, user.ID, user.Role)
	return 0
}
