package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/maxpert/fbsql/admin"
	"github.com/maxpert/fbsql/blobstore"
	"github.com/maxpert/fbsql/cfg"
	"github.com/maxpert/fbsql/client"
	"github.com/maxpert/fbsql/encoding"
	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/engine/loopback"
	"github.com/maxpert/fbsql/engine/sqlite"
	"github.com/maxpert/fbsql/telemetry"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	execFlag   = flag.String("exec", "", "Statement to execute")
	queryFlag  = flag.String("query", "", "Query to run; rows are written to stdout")
	outputFlag = flag.String("output", "text", "Row output format: text or msgpack")
	serveFlag  = flag.Bool("serve", false, "Keep serving metrics and blob inspection until interrupted")
	params     paramList
)

func init() {
	flag.Var(&params, "param", "Parameter as type:value, repeatable (e.g. int:42, varchar:abc, date:2024-01-31, null)")
}

func main() {
	flag.Parse()

	// Load configuration
	err := cfg.Load(*cfg.ConfigPathFlag)
	if err != nil {
		panic(err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	// Setup logging
	var writer io.Writer = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stderr })
	if cfg.Config.Logging.Format == "json" {
		writer = os.Stderr
	}
	gLog := zerolog.New(writer).
		With().
		Timestamp().
		Uint64("node_id", cfg.Config.NodeID).
		Logger()

	if cfg.Config.Logging.Verbose {
		log.Logger = gLog.Level(zerolog.DebugLevel)
	} else {
		log.Logger = gLog.Level(zerolog.InfoLevel)
	}

	log.Debug().Msg("Initializing telemetry")
	telemetry.InitializeTelemetry()
	telemetry.InitMetrics()

	store, err := blobstore.Open(blobstore.OptionsFromConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open blob store")
		return
	}
	defer store.Close()

	att, err := attach(store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to attach engine")
		return
	}
	conn := client.New(att)
	defer conn.Close()

	stats, _ := att.(telemetry.StatsProvider)
	if cfg.Config.Prometheus.Enabled {
		collector := telemetry.NewMetricsCollector(
			time.Duration(cfg.Config.Prometheus.CollectIntervalSeconds)*time.Second, stats)
		collector.Start()
		defer collector.Stop()

		server, err := admin.Start(cfg.Config.Prometheus.Address, cfg.Config.Prometheus.Port,
			admin.NewAdminHandlers(cfg.Config.NodeID, store, stats))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start admin server")
			return
		}
		defer server.Stop()
	}

	if err := run(conn); err != nil {
		log.Error().Err(err).Msg("Statement failed")
		os.Exit(1)
	}

	if *serveFlag {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}
}

// attach opens the configured engine over store
func attach(store *blobstore.Store) (engine.Attachment, error) {
	switch cfg.Config.Engine.Backend {
	case cfg.EngineLoopback:
		return loopback.New(store), nil
	case cfg.EngineSQLite:
		return sqlite.Open(sqlite.OptionsFromConfig(), store)
	}
	return nil, fmt.Errorf("unknown engine backend %q", cfg.Config.Engine.Backend)
}

func run(conn *client.Conn) error {
	if *execFlag == "" && *queryFlag == "" {
		return nil
	}
	query := *execFlag
	if query == "" {
		query = *queryFlag
	}

	stmt, err := conn.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range params {
		v, err := parseParam(p)
		if err != nil {
			return fmt.Errorf("parameter %d: %w", i+1, err)
		}
		stmt.BindValue(v)
	}

	if *execFlag != "" {
		n, err := stmt.Execute()
		if err != nil {
			return err
		}
		log.Info().Int64("rows_affected", n).Msg("Statement executed")
		return nil
	}

	rs, err := stmt.Query()
	if err != nil {
		return err
	}
	defer rs.Close()
	return writeRows(os.Stdout, rs, *outputFlag)
}

// writeRows prints every row as tab separated text or as msgpack
func writeRows(w io.Writer, rs *client.ResultSet, format string) error {
	var enc *encoding.RowEncoder
	switch format {
	case "msgpack":
		enc = encoding.NewRowEncoder(w)
	case "text":
		fmt.Fprintln(w, strings.Join(rs.ColumnAliases(), "\t"))
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	count := 0
	for {
		ok, err := rs.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		count++

		if enc != nil {
			if err := enc.Encode(rs.Row()); err != nil {
				return err
			}
			continue
		}

		values, err := encoding.ExportRow(rs.Row())
		if err != nil {
			return err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			switch x := v.(type) {
			case nil:
				cells[i] = "<null>"
			case []byte:
				cells[i] = fmt.Sprintf("%x", x)
			default:
				cells[i] = fmt.Sprint(x)
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	log.Debug().Int("rows", count).Msg("Query finished")
	return nil
}
