package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/studiowebux/lmscli/internal/apiclient"
	"github.com/studiowebux/lmscli/internal/cli"
)

var (
	version = "0.1.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if apiclient.IsSessionExpired(err) {
			fmt.Fprintln(os.Stderr, "Session expired, run `lmscli login`")
		}
		os.Exit(1)
	}
}

// Persistent flags
var globals cli.GlobalOptions

var rootCmd = &cobra.Command{
	Use:   "lmscli [resource]",
	Short: "LMS CLI - browse courses, users and enrollments",
	Long: `LMS CLI is a terminal client for a learning management backend.

Run without a subcommand to open the interactive table browser, optionally on
a given resource. Use the list command for scripted, one-page queries.

Examples:
  lmscli                                   # Browse the first resource
  lmscli courses                           # Browse courses
  lmscli login --email ada@example.com     # Sign in
  lmscli list courses --search go --sort title:desc
  lmscli list courses --filter status=published,draft -o yaml
  lmscli list courses --query 'items[].title'
  lmscli resources --counts`,
	Version:       version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := globals
		opts.LogToFile = true
		return withApp(cmd, opts, func(app *cli.App) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			if name != "" {
				if _, err := app.ChooseResource(name, cmd.InOrStdin()); err != nil {
					return err
				}
			}
			return app.Browse(cmd.Context(), name, version)
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, globals, func(app *cli.App) error {
			return app.Login(cmd.Context(), loginOpts, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, globals, func(app *cli.App) error {
			return app.Logout(cmd.Context(), cmd.OutOrStdout())
		})
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, globals, func(app *cli.App) error {
			return app.Me(cmd.Context(), flagOutput, cmd.OutOrStdout())
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list [resource]",
	Short: "Print one page of a resource",
	Long: `Print one page of a resource.

Filters use column=value; facet columns accept a comma-separated set.
Sort with column[:asc|desc], several rules separated by commas.
--where and --query take JMESPath over the page payload; a query written as
$(command) pipes the payload to a shell command instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, globals, func(app *cli.App) error {
			opts := listOpts
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			var err error
			if opts.Resource, err = app.ChooseResource(name, cmd.InOrStdin()); err != nil {
				return err
			}
			return app.List(cmd.Context(), opts, cmd.OutOrStdout())
		})
	},
}

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List browsable resources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, globals, func(app *cli.App) error {
			return app.ListResources(cmd.Context(), flagCounts, flagOutput, cmd.OutOrStdout())
		})
	},
}

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Manage saved table views",
}

var viewsListCmd = &cobra.Command{
	Use:   "list [resource]",
	Short: "List saved views",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, globals, func(app *cli.App) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return app.ListViews(cmd.Context(), name, flagOutput, cmd.OutOrStdout())
		})
	},
}

var viewsDeleteCmd = &cobra.Command{
	Use:   "delete <resource> <name>",
	Short: "Delete a saved view",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, globals, func(app *cli.App) error {
			return app.DeleteView(cmd.Context(), args[0], args[1], cmd.OutOrStdout())
		})
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <path> <file>",
	Short: "Download an API path to a file (- for stdout)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, globals, func(app *cli.App) error {
			return app.Download(cmd.Context(), args[0], args[1], cmd.OutOrStdout(), cmd.ErrOrStderr())
		})
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <path> <file>",
	Short: "Upload a file as multipart form data",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, globals, func(app *cli.App) error {
			opts := uploadOpts
			opts.Path, opts.File, opts.Output = args[0], args[1], flagOutput
			return app.Upload(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		})
	},
}

var localeCmd = &cobra.Command{
	Use:   "locale <tag>",
	Short: "Set the language sent as Accept-Language (en, fr, ...)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, globals, func(app *cli.App) error {
			return app.SetLocale(args[0], cmd.OutOrStdout())
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, optionally checking for a newer release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagCheck {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "lmscli %s\n", version)
			return err
		}
		return cli.CheckVersion(cmd.Context(), version, flagOutput, cmd.OutOrStdout())
	},
}

// Command flags
var (
	flagCheck  bool
	flagOutput string
	flagCounts bool
	loginOpts  cli.LoginOptions
	listOpts   cli.ListOptions
	uploadOpts cli.UploadOptions
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globals.BaseURL, "base-url", "", "API base URL (overrides settings)")
	pf.StringVar(&globals.LogLevel, "log-level", "", "Log level (debug/info/warn/error)")
	pf.BoolVar(&globals.Insecure, "insecure", false, "Skip TLS certificate verification")
	pf.StringVar(&globals.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	loginCmd.Flags().StringVar(&loginOpts.Email, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginOpts.Password, "password", "", "Account password (prefer --password-stdin)")
	loginCmd.Flags().BoolVar(&loginOpts.PasswordStdin, "password-stdin", false, "Read the password from stdin")
	loginCmd.Flags().BoolVar(&loginOpts.NoPersist, "no-persist", false, "Keep the session in memory only")

	lf := listCmd.Flags()
	lf.StringVarP(&listOpts.Search, "search", "s", "", "Search text")
	lf.StringVarP(&listOpts.SearchKey, "search-key", "k", "", "Column the search applies to (multi-key resources)")
	lf.StringArrayVarP(&listOpts.Filters, "filter", "f", nil, "Column filter column=value[,value], can be repeated")
	lf.StringVar(&listOpts.Sort, "sort", "", "Sort rules column[:asc|desc][,...]")
	lf.IntVarP(&listOpts.Page, "page", "p", 1, "Page number (1-based)")
	lf.IntVarP(&listOpts.PageSize, "page-size", "n", 0, "Rows per page")
	lf.StringVar(&listOpts.View, "view", "", "Start from a saved view")
	lf.StringVar(&listOpts.SaveView, "save-view", "", "Save the resulting view under this name")
	lf.StringVar(&listOpts.Where, "where", "", "JMESPath filter applied to the page payload")
	lf.StringVarP(&listOpts.Query, "query", "q", "", "JMESPath query or $(shell command) applied to the page payload")
	lf.StringVarP(&listOpts.Output, "output", "o", "", "Output format (json/yaml/table)")

	for _, c := range []*cobra.Command{meCmd, resourcesCmd, viewsListCmd, uploadCmd, versionCmd} {
		c.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (json/yaml/table)")
	}
	versionCmd.Flags().BoolVar(&flagCheck, "check", false, "Check for a newer release")
	resourcesCmd.Flags().BoolVar(&flagCounts, "counts", false, "Fetch the row count of every resource")

	uploadCmd.Flags().StringVar(&uploadOpts.FieldName, "field-name", "file", "Form field of the file part")
	uploadCmd.Flags().StringArrayVarP(&uploadOpts.Fields, "field", "F", nil, "Extra form field key=value, can be repeated")

	viewsCmd.AddCommand(viewsListCmd, viewsDeleteCmd)
	rootCmd.AddCommand(loginCmd, logoutCmd, meCmd, listCmd, resourcesCmd, viewsCmd, downloadCmd, uploadCmd, localeCmd, versionCmd)
}

// withApp opens the app for one command and always closes it
func withApp(cmd *cobra.Command, opts cli.GlobalOptions, fn func(app *cli.App) error) (err error) {
	opts.Version = version
	app, err := cli.Open(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, app.Close())
	}()
	return fn(app)
}
