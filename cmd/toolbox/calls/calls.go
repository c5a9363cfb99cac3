// Package callscmder provides the calls command for reading the call ledger
// written by the server and the one-shot tool commands.
package callscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/papercomputeco/toolbox/cmd/toolbox/sqlitepath"
	"github.com/papercomputeco/toolbox/cmd/toolbox/wiring"
	"github.com/papercomputeco/toolbox/pkg/cliui"
	"github.com/papercomputeco/toolbox/pkg/config"
	"github.com/papercomputeco/toolbox/pkg/storage"
)

const callsLongDesc string = `List recorded tool calls, newest first.

The ledger is read from PostgreSQL when storage.postgres_dsn is set, and
otherwise from SQLite. Without --sqlite the database is looked up in
TOOLBOX_SQLITE, TOOLBOX_DB, the .toolbox directory (--config-dir, then
./.toolbox, then ~/.toolbox), ./toolbox.db, and $XDG_DATA_HOME/toolbox.

Examples:
  toolbox calls
  toolbox calls --limit 5 --json
  toolbox calls get 3f1c2a4e-...`

const callsShortDesc string = "List recorded tool calls"

var callsFlags = []string{
	config.FlagSQLite,
	config.FlagPostgres,
}

type callsCommander struct {
	sqlitePath  string
	postgresDSN string
	limit       int
	jsonOut     bool
}

func NewCallsCmd() *cobra.Command {
	cmder := &callsCommander{}

	cmd := &cobra.Command{
		Use:   "calls",
		Short: callsShortDesc,
		Long:  callsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.withLedger(cmd, func(ctx context.Context, ledger storage.Driver) error {
				records, err := ledger.List(ctx, cmder.limit)
				if err != nil {
					return fmt.Errorf("listing calls: %w", err)
				}
				if cmder.jsonOut {
					return writeJSON(cmd.OutOrStdout(), records)
				}
				printTable(cliui.NewOutput(cmd.OutOrStdout()), records)
				return nil
			})
		},
	}

	cmder.addFlags(cmd.PersistentFlags())
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum number of calls to list")

	cmd.AddCommand(newGetCmd(cmder))

	return cmd
}

func newGetCmd(cmder *callsCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one recorded call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.withLedger(cmd, func(ctx context.Context, ledger storage.Driver) error {
				rec, err := ledger.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if cmder.jsonOut {
					return writeJSON(cmd.OutOrStdout(), rec)
				}
				printRecord(cliui.NewOutput(cmd.OutOrStdout()), rec)
				return nil
			})
		},
	}
}

// addFlags registers the ledger flags as persistent so "calls get" shares
// them. The SQLite default stays empty so path discovery can run.
func (c *callsCommander) addFlags(fs *pflag.FlagSet) {
	sqliteFlag := config.Flags[config.FlagSQLite]
	postgresFlag := config.Flags[config.FlagPostgres]

	fs.StringVarP(&c.sqlitePath, sqliteFlag.Name, sqliteFlag.Shorthand, "", "Path to the SQLite call ledger")
	fs.StringVar(&c.postgresDSN, postgresFlag.Name, "", postgresFlag.Description)
	fs.BoolVar(&c.jsonOut, "json", false, "Print records as JSON")
}

// withLedger opens the configured ledger read side and runs fn against it.
func (c *callsCommander) withLedger(cmd *cobra.Command, fn func(ctx context.Context, ledger storage.Driver) error) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := wiring.LoadConfig(cmd, configDir, callsFlags)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := wiring.CLILogger(cmd.ErrOrStderr(), debug)

	if cfg.Storage.PostgresDSN == "" {
		res, err := sqlitepath.Resolve(cfg.Storage.SQLitePath, configDir)
		if err != nil {
			return err
		}
		logger.Debug("resolved sqlite ledger", "path", res.Path, "source", string(res.Source))
		cfg.Storage.SQLitePath = res.Path
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ledger, err := wiring.NewLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer ledger.Close()

	return fn(ctx, ledger)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

const (
	idWidth    = 8
	toolWidth  = 18
	modelWidth = 28
)

func printTable(out *cliui.Output, records []*storage.CallRecord) {
	if len(records) == 0 {
		out.Printf("\n  %s\n\n", cliui.DimStyle.Render("No calls recorded yet."))
		return
	}

	out.Printf("\n  %s %s %s %s  %s\n",
		cliui.HeaderStyle.Render(cliui.PadRight("ID", idWidth)),
		cliui.HeaderStyle.Render(cliui.PadRight("TOOL", toolWidth)),
		cliui.HeaderStyle.Render(cliui.PadRight("MODEL", modelWidth)),
		cliui.HeaderStyle.Render("OK"),
		cliui.HeaderStyle.Render("DURATION"),
	)

	for _, rec := range records {
		out.Printf("  %s %s %s %s   %s\n",
			cliui.DimStyle.Render(cliui.PadRight(cliui.Truncate(rec.ID, idWidth), idWidth)),
			cliui.KeyStyle.Render(cliui.PadRight(cliui.Truncate(rec.Tool, toolWidth), toolWidth)),
			cliui.ValueStyle.Render(cliui.PadRight(cliui.Truncate(subject(rec), modelWidth), modelWidth)),
			cliui.MarkBool(rec.Success),
			cliui.FormatDuration(time.Duration(rec.DurationMs)*time.Millisecond),
		)
	}
	out.Printf("\n  %s\n\n", cliui.DimStyle.Render(fmt.Sprintf("%d call(s)", len(records))))
}

// subject is the model for completion tools and the target for web tools.
func subject(rec *storage.CallRecord) string {
	if rec.Model != "" {
		return rec.Provider + "/" + rec.Model
	}
	return rec.Target
}

func printRecord(out *cliui.Output, rec *storage.CallRecord) {
	rows := [][2]string{
		{"id", rec.ID},
		{"tool", rec.Tool},
		{"provider", rec.Provider},
		{"model", rec.Model},
		{"target", rec.Target},
		{"attempts", fmt.Sprint(rec.Attempts)},
		{"started", rec.StartedAt.Format(time.RFC3339)},
		{"duration", cliui.FormatDuration(time.Duration(rec.DurationMs) * time.Millisecond)},
		{"error", rec.Error},
	}

	out.Printf("\n  %s %s\n\n", cliui.MarkBool(rec.Success), cliui.HeaderStyle.Render(rec.Tool))
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		out.Printf("  %s %s\n", cliui.KeyStyle.Render(cliui.PadRight(row[0], 10)), cliui.ValueStyle.Render(row[1]))
	}
	out.Printf("\n")
}
