// Package wishctl implements the operator commands of the wishctl binary.
package wishctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/flagx"
	"github.com/dmitrijs2005/wishlist/internal/netx"
	"github.com/dmitrijs2005/wishlist/internal/server/services"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var (
	ErrUsage            = errors.New("usage: wishctl <create-user|purge|upload-image> [flags]")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

type App struct {
	auth   *services.AuthService
	images *services.ImageService
	client *http.Client
	out    io.Writer
}

func NewApp(auth *services.AuthService, images *services.ImageService, out io.Writer) *App {
	return &App{auth: auth, images: images, out: out}
}

// Run dispatches args[0] as the command. Remaining args may mix command
// flags with server config flags; each side only reads its own.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	switch args[0] {
	case "create-user":
		return a.CreateUser(ctx, args[1:])
	case "purge":
		return a.Purge(ctx)
	case "upload-image":
		return a.UploadImage(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}
}

// GetPassword prints prompt to w and reads a password from the terminal
// without echo.
func GetPassword(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

func (a *App) CreateUser(ctx context.Context, args []string) error {
	var email, name string
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&email, "email", "", "account email")
	fs.StringVar(&name, "name", "", "display name")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-email", "--email", "-name", "--name"})); err != nil {
		return err
	}
	if email == "" {
		return fmt.Errorf("-email is required: %w", ErrUsage)
	}

	pw, err := GetPassword(a.out, "Enter password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	confirm, err := GetPassword(a.out, "Repeat password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if pw != confirm {
		return ErrPasswordMismatch
	}

	var namePtr *string
	if name != "" {
		namePtr = &name
	}
	res, err := a.auth.Register(ctx, email, pw, namePtr)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created user %s (%s)\n", res.User.ID, res.User.Email)
	return nil
}

func (a *App) Purge(ctx context.Context) error {
	n, err := a.auth.Tokens().PurgeExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "purged %d expired tokens\n", n)
	return nil
}

// UploadImage attaches a local file to a wish on behalf of its owner.
func (a *App) UploadImage(ctx context.Context, args []string) error {
	var userID, wishID, path string
	fs := flag.NewFlagSet("upload-image", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&userID, "user", "", "owner user id")
	fs.StringVar(&wishID, "wish", "", "wish id")
	fs.StringVar(&path, "file", "", "image file")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-user", "--user", "-wish", "--wish", "-file", "--file"})); err != nil {
		return err
	}
	if userID == "" || wishID == "" || path == "" {
		return fmt.Errorf("-user, -wish and -file are required: %w", ErrUsage)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	up, err := a.images.ImageUploadURL(ctx, userID, wishID)
	if err != nil {
		return err
	}
	if err := netx.PutPresigned(ctx, a.client, up.UploadURL, mime.TypeByExtension(filepath.Ext(path)), f); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "uploaded %s as %s\n", filepath.Base(path), up.Key)
	return nil
}
