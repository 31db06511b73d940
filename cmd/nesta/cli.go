package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/nesta/internal/errors"
	"github.com/hpungsan/nesta/internal/ops"
	"github.com/hpungsan/nesta/internal/web"
)

// maxStdinBytes caps a token document piped on stdin.
const maxStdinBytes = 1 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *ops.Env) *cli.App {
	app := &cli.App{
		Name:    "nesta",
		Usage:   "Template bundle installer and content hydrator",
		Version: Version,
		Commands: []*cli.Command{
			packsCmd(env),
			packCmd(env),
			markupCmd(env),
			syncCmd(env),
			installCmd(env),
			generateCmd(env),
			undoCmd(env),
			resetCmd(env),
			createPageCmd(env),
			importCmd(env),
			schemaCmd(env),
			statusCmd(env),
			uiCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// tokenFlags are shared by the commands that hydrate content.
func tokenFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "token", Aliases: []string{"t"}, Usage: "Token value as key=value (repeatable)"},
		&cli.StringFlag{Name: "token-json", Usage: "Token JSON document, or - to read it from stdin"},
	}
}

// packsCmd creates the packs command.
func packsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "packs",
		Usage: "List available template packs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Max items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Pagination offset"},
			&cli.BoolFlag{Name: "refresh", Usage: "Rescan template sources first"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListPacks(env, ops.ListPacksInput{
				Limit:   c.Int("limit"),
				Offset:  c.Int("offset"),
				Refresh: c.Bool("refresh"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// packCmd creates the pack command.
func packCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "Show one pack's manifest",
		ArgsUsage: "<pack-id>",
		Action: func(c *cli.Context) error {
			output, err := ops.GetPack(env, ops.GetPackInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// markupCmd creates the markup command.
func markupCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "markup",
		Usage:     "Render a pack page with tokens substituted",
		ArgsUsage: "<pack-id> <page>",
		Flags:     tokenFlags()[:1],
		Action: func(c *cli.Context) error {
			values, err := parseTokens(c.StringSlice("token"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			output, err := ops.PageMarkup(env, ops.PageMarkupInput{
				PackID:  c.Args().Get(0),
				PageKey: c.Args().Get(1),
				Tokens:  values,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// syncCmd creates the sync command.
func syncCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Download new and changed packs from the remote catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "catalog-url", Usage: "Override the configured catalog URL"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Sync(c.Context, env, ops.SyncInput{CatalogURL: c.String("catalog-url")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// installCmd creates the install command.
func installCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "Import a pack's bundle into the site",
		ArgsUsage: "<pack-id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Install(c.Context, env, ops.InstallInput{PackID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// generateCmd creates the generate command.
func generateCmd(env *ops.Env) *cli.Command {
	flags := append(tokenFlags(),
		&cli.StringFlag{Name: "pack", Aliases: []string{"p"}, Usage: "Pack id (defaults to the installed pack)"},
		&cli.StringFlag{Name: "primary-color", Usage: "Primary brand color"},
		&cli.StringFlag{Name: "secondary-color", Usage: "Secondary brand color"},
		&cli.StringFlag{Name: "accent-color", Usage: "Accent brand color"},
		&cli.StringFlag{Name: "text-color", Usage: "Body text color"},
		&cli.StringFlag{Name: "heading-font", Usage: "Heading font family"},
		&cli.StringFlag{Name: "body-font", Usage: "Body font family"},
		&cli.Int64Flag{Name: "logo-id", Usage: "Attachment id of the logo (0 removes it)"},
	)
	return &cli.Command{
		Name:  "generate",
		Usage: "Hydrate installed pages with business details and apply the brand",
		Flags: flags,
		Action: func(c *cli.Context) error {
			values, tokenJSON, err := tokenInput(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Generate(c.Context, env, ops.GenerateInput{
				PackID:    c.String("pack"),
				Tokens:    values,
				TokenJSON: tokenJSON,
				Brand:     brandFlags(c),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// undoCmd creates the undo command.
func undoCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "undo",
		Usage: "Permanently delete every record of the last install",
		Action: func(c *cli.Context) error {
			output, err := ops.Undo(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// resetCmd creates the reset command.
func resetCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Remove installed records, the install record and stored branding",
		Action: func(c *cli.Context) error {
			output, err := ops.Reset(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// createPageCmd creates the create-page command.
func createPageCmd(env *ops.Env) *cli.Command {
	flags := append(tokenFlags(),
		&cli.StringFlag{Name: "blueprint", Aliases: []string{"b"}, Usage: "Blueprint: service|location", Required: true},
		&cli.StringFlag{Name: "title", Usage: "Page title", Required: true},
		&cli.StringFlag{Name: "slug", Usage: "Page slug (defaults to the title)"},
		&cli.StringFlag{Name: "status", Value: "draft", Usage: "Page status: draft|publish"},
	)
	return &cli.Command{
		Name:  "create-page",
		Usage: "Create a service or location page from a blueprint",
		Flags: flags,
		Action: func(c *cli.Context) error {
			values, tokenJSON, err := tokenInput(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.CreatePage(c.Context, env, ops.CreatePageInput{
				Blueprint: c.String("blueprint"),
				Title:     c.String("title"),
				Slug:      c.String("slug"),
				Status:    c.String("status"),
				Tokens:    values,
				TokenJSON: tokenJSON,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a raw export file into the site",
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, env, ops.ImportInput{Path: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// schemaCmd creates the schema command.
func schemaCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Show the token schema and page blueprints",
		Action: func(c *cli.Context) error {
			return outputJSON(ops.Schema(env))
		},
	}
}

// statusCmd creates the status command.
func statusCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the install record, branding and sync ledger",
		Action: func(c *cli.Context) error {
			output, err := ops.Status(env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// uiCmd creates the ui command.
func uiCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Serve the pack gallery and site dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8420, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(env, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(env, srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if ne, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", ne.Code, ne.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// tokenInput collects --token pairs and the --token-json document.
func tokenInput(c *cli.Context) (map[string]string, string, error) {
	values, err := parseTokens(c.StringSlice("token"))
	if err != nil {
		return nil, "", errors.NewInvalidRequest(err.Error())
	}
	tokenJSON := c.String("token-json")
	if tokenJSON == "-" {
		if !stdinHasData() {
			return nil, "", errors.NewInvalidRequest("token JSON must be piped via stdin")
		}
		tokenJSON, err = readStdin(maxStdinBytes)
		if err != nil {
			return nil, "", errors.NewInvalidRequest(err.Error())
		}
	}
	return values, tokenJSON, nil
}

// brandFlags returns the brand overrides set on the command line, or nil.
func brandFlags(c *cli.Context) *ops.Brand {
	names := []string{"primary-color", "secondary-color", "accent-color", "text-color", "heading-font", "body-font", "logo-id"}
	set := false
	for _, n := range names {
		if c.IsSet(n) {
			set = true
			break
		}
	}
	if !set {
		return nil
	}
	return &ops.Brand{
		PrimaryColor:   c.String("primary-color"),
		SecondaryColor: c.String("secondary-color"),
		AccentColor:    c.String("accent-color"),
		TextColor:      c.String("text-color"),
		HeadingFont:    c.String("heading-font"),
		BodyFont:       c.String("body-font"),
		LogoID:         c.Int64("logo-id"),
	}
}

// parseTokens splits key=value pairs. Later pairs win.
func parseTokens(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("token %q must be key=value", p)
		}
		out[key] = value
	}
	return out, nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("stdin exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}
