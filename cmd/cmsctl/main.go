package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/petermazzocco/precast-cms/internal/adminclient"
	"github.com/petermazzocco/precast-cms/internal/guard"
	"github.com/petermazzocco/precast-cms/internal/logger"
	"github.com/petermazzocco/precast-cms/internal/pager"
	"github.com/petermazzocco/precast-cms/internal/store"
	"github.com/petermazzocco/precast-cms/models"
	"github.com/spf13/cobra"
)

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "precast-cms", "session.json")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

type app struct {
	client      *adminclient.Client
	sessionFile string
	in          *bufio.Reader
	out         io.Writer
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: bufio.NewReader(in), out: out}
	var server string

	root := &cobra.Command{
		Use:           "cmsctl",
		Short:         "Manage contacts, gallery images and projects of the precast CMS",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(getEnv("LOG_LEVEL", "warn"))
			client, err := adminclient.New(server)
			if err != nil {
				return fmt.Errorf("invalid server URL: %w", err)
			}
			if err := client.LoadSession(a.sessionFile); err != nil {
				logger.Warn().Err(err).Msg("ignoring unreadable session file")
			}
			a.client = client
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&server, "server", getEnv("CMS_SERVER", "http://localhost:3000"), "admin API base URL")
	root.PersistentFlags().StringVar(&a.sessionFile, "session", defaultSessionFile(), "session cookie file")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.listCmd("contacts", "Browse contact form submissions", func(limit int) browser {
			return newBrowser(pager.New[models.Contact](a.client.ListContacts, limit), printContacts)
		}),
		a.listCmd("gallery", "Browse gallery images", func(limit int) browser {
			return newBrowser(pager.New[models.GalleryImage](a.client.ListGallery, limit), printGallery)
		}),
		a.listCmd("projects", "Browse projects", func(limit int) browser {
			return newBrowser(pager.New[models.Project](a.client.ListProjects, limit), printProjects)
		}),
		a.uploadCmd(),
		a.deleteCmd("delete-image", "Delete a gallery image and its objects", "/admin/gallery", func(ctx context.Context, id string) error {
			return a.client.DeleteGallery(ctx, id)
		}),
		a.deleteCmd("delete-project", "Delete a project and its images", "/admin/projects", func(ctx context.Context, id string) error {
			return a.client.DeleteProject(ctx, id)
		}),
	)
	return root
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.client.SaveSession(a.sessionFile); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Fprintf(a.out, "logged in as %s\n", user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", os.Getenv("CMS_PASSWORD"), "admin password (or CMS_PASSWORD)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove the cookie file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			if err := os.Remove(a.sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return nil
		},
	}
}

func (a *app) listCmd(name, short string, build func(limit int) browser) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.enforce(cmd.Context(), "/admin/"+name) {
				return adminclient.ErrUnauthorized
			}
			return a.browse(cmd.Context(), build(limit))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", store.DefaultPageSize, "page size")
	return cmd
}

func (a *app) deleteCmd(name, short, view string, del func(ctx context.Context, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.enforce(cmd.Context(), view) {
				return adminclient.ErrUnauthorized
			}
			return del(cmd.Context(), args[0])
		},
	}
}

// enforce runs the session guard. On failure the login hint is printed in
// place of a browser redirect.
func (a *app) enforce(ctx context.Context, view string) bool {
	g := guard.New(a.client.CheckSession, func(target string) {
		fmt.Fprintf(a.out, "session expired, run `cmsctl login` (%s)\n", target)
	})
	return g.Enforce(ctx, view)
}

func (a *app) uploadCmd() *cobra.Command {
	var meta adminclient.GalleryUpload
	var file string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload an image to the gallery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(file)))
			if contentType == "" {
				return fmt.Errorf("cannot tell the image type of %s", file)
			}
			if !a.enforce(cmd.Context(), "/admin/gallery") {
				return adminclient.ErrUnauthorized
			}

			img, err := a.client.UploadGallery(cmd.Context(), file, contentType, meta)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "uploaded %s\n%s\n", img.ID, img.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "image file")
	cmd.Flags().StringVar(&meta.Title, "title", "", "image title")
	cmd.Flags().StringVar(&meta.Category, "category", "", "gallery category")
	cmd.Flags().StringVar(&meta.Description, "description", "", "description")
	cmd.Flags().BoolVar(&meta.Featured, "featured", false, "show on the home page")
	cmd.MarkFlagRequired("file")
	return cmd
}

// browser is the type-erased view of a Pager and its printer.
type browser interface {
	first(ctx context.Context, w io.Writer) error
	next(ctx context.Context, w io.Writer) error
	prev(w io.Writer) error
	status() (page int, more bool)
}

type typedBrowser[T any] struct {
	p    *pager.Pager[T]
	show func(io.Writer, []T)
}

func newBrowser[T any](p *pager.Pager[T], show func(io.Writer, []T)) browser {
	return &typedBrowser[T]{p: p, show: show}
}

func (b *typedBrowser[T]) first(ctx context.Context, w io.Writer) error {
	items, err := b.p.First(ctx)
	if err == nil {
		b.show(w, items)
	}
	return err
}

func (b *typedBrowser[T]) next(ctx context.Context, w io.Writer) error {
	items, err := b.p.Next(ctx)
	if err == nil {
		b.show(w, items)
	}
	return err
}

func (b *typedBrowser[T]) prev(w io.Writer) error {
	items, err := b.p.Prev()
	if err == nil {
		b.show(w, items)
	}
	return err
}

func (b *typedBrowser[T]) status() (int, bool) {
	return b.p.PageNumber(), b.p.HasNext()
}

func (a *app) browse(ctx context.Context, b browser) error {
	if err := b.first(ctx, a.out); err != nil {
		return err
	}
	for {
		page, more := b.status()
		fmt.Fprintf(a.out, "-- page %d", page)
		if more {
			fmt.Fprint(a.out, " [n]ext")
		}
		if page > 1 {
			fmt.Fprint(a.out, " [p]rev")
		}
		fmt.Fprint(a.out, " [q]uit: ")

		line, err := a.in.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(a.out)
			return nil
		}

		switch strings.TrimSpace(strings.ToLower(line)) {
		case "n", "":
			err = b.next(ctx, a.out)
		case "p":
			err = b.prev(a.out)
		case "q":
			return nil
		default:
			continue
		}

		switch {
		case errors.Is(err, pager.ErrNoMorePages), errors.Is(err, pager.ErrFirstPage):
			fmt.Fprintln(a.out, err)
		case err != nil:
			return err
		}
	}
}

func printContacts(w io.Writer, items []models.Contact) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tNAME\tEMAIL\tSUBJECT")
	for _, c := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.CreatedAt.Format("2006-01-02 15:04"), c.Name, c.Email, c.Subject)
	}
	tw.Flush()
}

func printGallery(w io.Writer, items []models.GalleryImage) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUPLOADED\tTITLE\tCATEGORY\tFEATURED")
	for _, g := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", g.ID, g.UploadDate.Format("2006-01-02"), g.Title, g.Category, g.Featured)
	}
	tw.Flush()
}

func printProjects(w io.Writer, items []models.Project) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tCATEGORY\tIMAGES")
	for _, p := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Title, p.Status, p.Category, len(p.Images))
	}
	tw.Flush()
}
