// Package webcmder provides the web command for issuing requests, scraping
// pages, and monitoring endpoints from the terminal.
package webcmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/toolbox/cmd/toolbox/wiring"
	"github.com/papercomputeco/toolbox/pkg/config"
	"github.com/papercomputeco/toolbox/pkg/credentials"
	"github.com/papercomputeco/toolbox/pkg/toolkit"
	"github.com/papercomputeco/toolbox/pkg/web"
)

const webLongDesc string = `Run the web tools against a URL.

Every subcommand prints its result envelope as JSON:
  toolbox web request <url>      Fetch a URL, decoding JSON bodies
  toolbox web scrape <url>       Extract title, selected text, and links
  toolbox web monitor <url>      Probe a URL repeatedly and report timings
  toolbox web api <url>          Describe the structure of a JSON API response`

const webShortDesc string = "Request, scrape, or monitor URLs"

var webFlags = []string{
	config.FlagUserAgent,
	config.FlagSQLite,
	config.FlagPostgres,
}

// webCommander holds the flags shared by the web subcommands.
type webCommander struct {
	userAgent   string
	sqlitePath  string
	postgresDSN string
}

func NewWebCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "web",
		Short: webShortDesc,
		Long:  webLongDesc,
	}

	cmd.AddCommand(newRequestCmd())
	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newMonitorCmd())
	cmd.AddCommand(newAPICmd())

	return cmd
}

func (c *webCommander) addFlags(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagUserAgent, &c.userAgent)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &c.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &c.postgresDSN)
}

// run opens the toolkit, runs call, and prints its envelope. A failed
// envelope is still printed before the error is returned.
func (c *webCommander) run(cmd *cobra.Command, call func(ctx context.Context, kit *toolkit.Toolkit) (any, string)) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := wiring.LoadConfig(cmd, configDir, webFlags)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	creds, err := credentials.NewStore(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	stack, err := wiring.Open(ctx, cfg, creds, wiring.CLILogger(cmd.ErrOrStderr(), debug))
	if err != nil {
		return err
	}
	defer stack.Close()

	result, failure := call(ctx, stack.Toolkit)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if failure != "" {
		return errors.New(failure)
	}
	return nil
}

func newRequestCmd() *cobra.Command {
	cmder := &webCommander{}
	var (
		method  string
		headers map[string]string
		params  map[string]string
		data    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "request <url>",
		Short: "Fetch a URL",
		Long: `Fetch a URL and decode its body.

Examples:
  toolbox web request https://api.github.com/repos/golang/go
  toolbox web request -X POST --data '{"name":"x"}' https://httpbin.org/post`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := web.RequestOptions{
				Method:  method,
				Headers: headers,
				Timeout: timeout,
			}
			if len(params) > 0 {
				opts.Params = make(map[string]any, len(params))
				for k, v := range params {
					opts.Params[k] = v
				}
			}
			if data != "" {
				if err := json.Unmarshal([]byte(data), &opts.Data); err != nil {
					return fmt.Errorf("invalid --data JSON: %w", err)
				}
			}

			return cmder.run(cmd, func(ctx context.Context, kit *toolkit.Toolkit) (any, string) {
				res := kit.Request(ctx, toolkit.SurfaceCLI, args[0], opts)
				return res, res.Error
			})
		},
	}

	cmder.addFlags(cmd)
	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method")
	cmd.Flags().StringToStringVarP(&headers, "header", "H", nil, "Request header as key=value; repeatable")
	cmd.Flags().StringToStringVar(&params, "param", nil, "Query parameter as key=value; repeatable")
	cmd.Flags().StringVar(&data, "data", "", "JSON request body for non-GET methods")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Request timeout (default from web.timeout_seconds)")

	return cmd
}

func newScrapeCmd() *cobra.Command {
	cmder := &webCommander{}
	var opts web.ScrapeOptions

	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Extract content from a page",
		Long: `Extract the title, selected text, and optionally links from an HTML page.

Examples:
  toolbox web scrape https://go.dev
  toolbox web scrape --selector h1 --selector "article p" --links https://go.dev/blog`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, func(ctx context.Context, kit *toolkit.Toolkit) (any, string) {
				res := kit.Scrape(ctx, toolkit.SurfaceCLI, args[0], opts)
				return res, res.Error
			})
		},
	}

	cmder.addFlags(cmd)
	cmd.Flags().StringArrayVar(&opts.Selectors, "selector", nil, "CSS selector to extract; repeatable")
	cmd.Flags().BoolVar(&opts.ExtractLinks, "links", false, "Also extract links")

	return cmd
}

func newMonitorCmd() *cobra.Command {
	cmder := &webCommander{}
	var opts web.MonitorOptions

	cmd := &cobra.Command{
		Use:   "monitor <url>",
		Short: "Probe a URL repeatedly",
		Long: `Probe a URL with sequential GET requests and report each one.

Examples:
  toolbox web monitor --attempts 5 --interval 2s https://example.com/health`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, func(ctx context.Context, kit *toolkit.Toolkit) (any, string) {
				res := kit.Monitor(ctx, toolkit.SurfaceCLI, args[0], opts)
				return res, res.Error
			})
		},
	}

	cmder.addFlags(cmd)
	cmd.Flags().DurationVar(&opts.Interval, "interval", 5*time.Second, "Delay between probes")
	cmd.Flags().IntVar(&opts.MaxAttempts, "attempts", 3, "Number of probes")

	return cmd
}

func newAPICmd() *cobra.Command {
	cmder := &webCommander{}
	var (
		dataFile   string
		schemaFile string
	)

	cmd := &cobra.Command{
		Use:   "api [url]",
		Short: "Describe a JSON API response",
		Long: `Fetch a JSON API response, or read one from a file, and describe its
structure. With --schema the data is also validated against a JSON Schema.

Examples:
  toolbox web api https://api.github.com/repos/golang/go
  toolbox web api --data-file response.json --schema schema.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var url string
			if len(args) == 1 {
				url = args[0]
			}

			var data any
			if dataFile != "" {
				if err := readJSON(cmd.InOrStdin(), dataFile, &data); err != nil {
					return fmt.Errorf("reading data: %w", err)
				}
			}
			if data == nil && url == "" {
				return errors.New("a url or --data-file is required")
			}

			var schema map[string]any
			if schemaFile != "" {
				if err := readJSON(cmd.InOrStdin(), schemaFile, &schema); err != nil {
					return fmt.Errorf("reading schema: %w", err)
				}
			}

			return cmder.run(cmd, func(ctx context.Context, kit *toolkit.Toolkit) (any, string) {
				res := kit.AnalyzeAPI(ctx, toolkit.SurfaceCLI, url, data, schema)
				return res, res.Error
			})
		},
	}

	cmder.addFlags(cmd)
	cmd.Flags().StringVar(&dataFile, "data-file", "", `JSON document to analyze instead of fetching; "-" reads stdin`)
	cmd.Flags().StringVar(&schemaFile, "schema", "", "JSON Schema file to validate against")

	return cmd
}

// readJSON decodes the file at path, or stdin for "-", into dst.
func readJSON(stdin io.Reader, path string, dst any) error {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return errors.New("empty document")
	}
	return json.Unmarshal(raw, dst)
}
