// Package inferctl implements the command-line tool for talking to a running
// inferd daemon and for launching a managed one.
package inferctl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"inferd/pkg/client"
	"inferd/pkg/manager"
	"inferd/pkg/types"
)

// Config carries the persistent flag values down to command actions.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Execute parses args and runs the matching command.
func Execute(args []string) error {
	root := buildRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func buildRootCmd() *cobra.Command {
	defaultURL := "http://127.0.0.1:8080"
	if v := os.Getenv("INFERCTL_URL"); v != "" {
		defaultURL = v
	}
	cfg := &Config{URL: defaultURL, Timeout: 30 * time.Second}

	root := &cobra.Command{
		Use:           "inferctl",
		Short:         "Control and query an inferd daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> Config
	root.PersistentFlags().String("url", cfg.URL, "Daemon base URL (defaults INFERCTL_URL or http://127.0.0.1:8080)")
	root.PersistentFlags().Duration("timeout", cfg.Timeout, "Per-call timeout")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if f := cmd.InheritedFlags().Lookup("url"); f != nil {
			if v := f.Value.String(); v != "" {
				cfg.URL = v
			}
		}
		if f := cmd.InheritedFlags().Lookup("timeout"); f != nil {
			if d, err := time.ParseDuration(f.Value.String()); err == nil && d > 0 {
				cfg.Timeout = d
			}
		}
	}

	root.AddCommand(
		buildStatusCmd(cfg),
		buildObjectsCmd(cfg),
		buildCreateCmd(cfg),
		buildPredictCmd(cfg),
		buildCollectionCmd(cfg),
		buildUpCmd(),
	)
	return root
}

func newClient(cfg *Config) *client.Client {
	return client.New(cfg.URL, client.WithCallTimeout(cfg.Timeout))
}

func callCtx(cfg *Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.Timeout)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func buildStatusCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{Use: "status", Short: "Show daemon status", Example: "  inferctl status", RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callCtx(cfg)
		defer cancel()
		st, err := newClient(cfg).Status(ctx)
		if err != nil {
			return err
		}
		return printJSON(st)
	}}
}

func buildObjectsCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{Use: "objects", Short: "List registered objects and their states", Example: "  inferctl objects", RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callCtx(cfg)
		defer cancel()
		objs, err := newClient(cfg).Objects(ctx)
		if err != nil {
			return err
		}
		return printJSON(objs)
	}}
}

func buildCreateCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{Use: "create <name>", Short: "Instantiate a registered object", Args: cobra.ExactArgs(1), Example: "  inferctl create iris", RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callCtx(cfg)
		defer cancel()
		out, err := newClient(cfg).Create(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(out)
	}}
}

func buildPredictCmd(cfg *Config) *cobra.Command {
	var object string
	cmd := &cobra.Command{Use: "predict <v1,v2,...>", Short: "Run inference on a feature vector", Args: cobra.ExactArgs(1), Example: "  inferctl predict 5.1,3.5,1.4,0.2\n  inferctl predict --object iris 5.1,3.5,1.4,0.2", RunE: func(cmd *cobra.Command, args []string) error {
		input, err := parseVector(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := callCtx(cfg)
		defer cancel()
		out, err := newClient(cfg).Model(object).Predict(ctx, input)
		if err != nil {
			return err
		}
		return printJSON(out)
	}}
	cmd.Flags().StringVar(&object, "object", "", "Model object name (empty uses the daemon default)")
	return cmd
}

func buildCollectionCmd(cfg *Config) *cobra.Command {
	col := &cobra.Command{Use: "collection", Short: "Query a hosted collection", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("collection requires a subcommand: length|get")
	}}
	length := &cobra.Command{Use: "length <name>", Short: "Print the element count", Args: cobra.ExactArgs(1), Example: "  inferctl collection length corpus", RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callCtx(cfg)
		defer cancel()
		n, err := newClient(cfg).Collection(args[0]).Length(ctx)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	}}
	get := &cobra.Command{Use: "get <name> <index>", Short: "Print one element as JSON", Args: cobra.ExactArgs(2), Example: "  inferctl collection get corpus 17", RunE: func(cmd *cobra.Command, args []string) error {
		i, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("index must be an integer: %s", args[1])
		}
		ctx, cancel := callCtx(cfg)
		defer cancel()
		raw, err := newClient(cfg).Collection(args[0]).Get(ctx, i)
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	}}
	col.AddCommand(length, get)
	return col
}

func buildUpCmd() *cobra.Command {
	var (
		bin        string
		models     []string
		colls      []string
		defaultObj string
		portStart  int
		portEnd    int
	)
	cmd := &cobra.Command{
		Use:     "up",
		Short:   "Launch a managed daemon and block until interrupted",
		Example: "  inferctl up --bin ./inferd --model iris=./iris.weights.json --collection corpus=./corpus.json --default iris",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := manager.New(manager.Config{
				BinPath:       bin,
				PortStart:     portStart,
				PortEnd:       portEnd,
				DefaultObject: defaultObj,
			})
			for _, kv := range models {
				name, path, err := splitNamePath(kv)
				if err != nil {
					return err
				}
				if err := mgr.Register(types.ObjectSpec{Name: name, Kind: types.KindModel, WeightsPath: path}); err != nil {
					return err
				}
			}
			for _, kv := range colls {
				name, path, err := splitNamePath(kv)
				if err != nil {
					return err
				}
				if err := mgr.Register(types.ObjectSpec{Name: name, Kind: types.KindCollection, DataPath: path}); err != nil {
					return err
				}
			}
			if err := mgr.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("daemon ready at %s\n", mgr.BaseURL())

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop
			return mgr.Stop()
		},
	}
	cmd.Flags().StringVar(&bin, "bin", "inferd", "Path to the inferd binary")
	cmd.Flags().StringArrayVar(&models, "model", nil, "Model spec name=weights.json (repeatable)")
	cmd.Flags().StringArrayVar(&colls, "collection", nil, "Collection spec name=data.json (repeatable)")
	cmd.Flags().StringVar(&defaultObj, "default", "", "Default model object name")
	cmd.Flags().IntVar(&portStart, "port-start", 0, "Lowest listen port (0 = any free port)")
	cmd.Flags().IntVar(&portEnd, "port-end", 0, "Highest listen port")
	return cmd
}

func splitNamePath(kv string) (string, string, error) {
	i := strings.IndexByte(kv, '=')
	if i <= 0 || i == len(kv)-1 {
		return "", "", fmt.Errorf("expected name=path, got %q", kv)
	}
	return kv[:i], kv[i+1:], nil
}

// parseVector parses a comma-separated list of floats.
func parseVector(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %s", p)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("vector is empty")
	}
	return out, nil
}
