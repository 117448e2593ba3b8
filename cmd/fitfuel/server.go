package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/fitfuel/internal/api"
	"github.com/kalambet/fitfuel/internal/config"
	"github.com/kalambet/fitfuel/internal/profile"
	"github.com/kalambet/fitfuel/internal/session"
	"github.com/kalambet/fitfuel/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the fitfuel server (foreground)",
	Long: `Start the fitfuel HTTP API on localhost and, unless --no-mcp is given,
an MCP server on stdin/stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		noMCP, _ := cmd.Flags().GetBool("no-mcp")
		return runServer(!noMCP)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running fitfuel server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show fitfuel status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func init() {
	startCmd.Flags().Bool("no-mcp", false, "do not serve MCP on stdio")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "fitfuel.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func setupLogging(cfg config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))
}

func healthURL(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d/health", port)
}

// serverRunning reports whether something answers the health check on port.
func serverRunning(port int) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(healthURL(port))
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "fitfuel version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	if cfg.Server.APIToken == "" {
		slog.Warn("no API token configured, the HTTP API accepts unauthenticated local requests")
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	if serverRunning(cfg.Server.Port) {
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("fitfuel is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("fitfuel is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	profileMgr := profile.NewManager(store)
	coach := session.New(session.Deps{
		State:        profileMgr,
		Workouts:     store,
		AnalyzeDelay: cfg.Coach.Delay(),
	})

	handler := api.NewAppHandler(api.AppDeps{
		Store:       store,
		Profile:     profileMgr,
		Coach:       coach,
		DefaultGoal: cfg.Coach.Goal(),
		Token:       cfg.Server.APIToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("fitfuel listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Store:       store,
			Profile:     profileMgr,
			Coach:       coach,
			DefaultGoal: cfg.Coach.Goal(),
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			if err := stdioSrv.Listen(gCtx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
		slog.Info("MCP server started (stdio transport)")
	}

	g.Go(func() error {
		<-gCtx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("fitfuel is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop fitfuel (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to fitfuel (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	running := serverRunning(cfg.Server.Port)
	if running {
		printStatus("Server", "running on port %d", cfg.Server.Port)
	} else {
		printStatus("Server", "stopped")
	}

	if cfg.Server.APIToken != "" {
		printStatus("Auth", "bearer token")
	} else {
		printStatus("Auth", "none")
	}
	printStatus("Default goal", "%s", cfg.Coach.Goal().Label())

	if running {
		client, err := newAPIClient()
		if err == nil {
			if err := printProfileSummary(ctx, client); err != nil {
				printWarning("could not read profile: %v", err)
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func printProfileSummary(ctx context.Context, client *apiClient) error {
	resp, err := client.get(ctx, "/profile")
	if err != nil {
		return err
	}
	var s api.StateView
	if err := decodeJSON(resp, &s); err != nil {
		return err
	}

	name := s.Profile.Name
	if name == "" {
		name = "(not onboarded)"
	}
	printStatus("User", "%s", name)
	printStatus("Meals logged", "%d", s.Profile.TotalMealsLogged)
	printStatus("Streak", "%d", s.Profile.CurrentStreak)
	printStatus("Today", "%d / %d kcal", s.DailyIntake, s.Profile.DailyCalorieGoal)
	printStatus("Badges", "%d", len(s.Badges))
	return nil
}
