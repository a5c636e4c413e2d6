package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"coconet/internal/auth"
	"coconet/internal/listing"
	"coconet/internal/services"
	"coconet/internal/storage"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagStacks   []string
	flagPosition string
	flagTab      string
	flagPage     int
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List articles, optionally filtered by stack and position",
	Long: `Runs one listing session: applies the given filters, waits for the
resulting fetch and prints the selected tab.

Example:
  coconet browse --stack React --stack Go --position BACKEND --tab PROJECT`,
	RunE: runBrowse,
}

var articleCmd = &cobra.Command{
	Use:   "article [uuid]",
	Short: "Show one article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid article uuid %q: %w", args[0], err)
		}
		svc, closeFn, err := buildServices(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		ctx, cancel := requestContext(cmd.Context())
		defer cancel()
		a, err := svc.Articles.GetDetailArticle(ctx, id.String())
		if err != nil {
			return err
		}
		return printArticle(os.Stdout, a, flagJSON)
	},
}

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List popular articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := buildServices(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		ctx, cancel := requestContext(cmd.Context())
		defer cancel()
		articles, err := svc.Articles.GetPopularArticles(ctx)
		if err != nil {
			return err
		}
		return printArticles(os.Stdout, articles, flagJSON)
	},
}

var nameCheckCmd = &cobra.Command{
	Use:   "name-check [name]",
	Short: "Check whether a member name is already taken",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := buildServices(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		ctx, cancel := requestContext(cmd.Context())
		defer cancel()
		taken, err := svc.Users.CheckUsername(ctx, args[0])
		if err != nil {
			return err
		}
		if taken {
			fmt.Printf("%s is taken.\n", args[0])
		} else {
			fmt.Printf("%s is available.\n", args[0])
		}
		return nil
	},
}

func init() {
	browseCmd.Flags().StringArrayVar(&flagStacks, "stack", nil, "toggle a stack filter (repeatable)")
	browseCmd.Flags().StringVar(&flagPosition, "position", "", "position filter: "+fmt.Sprint(listing.Positions))
	browseCmd.Flags().StringVar(&flagTab, "tab", "ALL", "tab to print: ALL, PROJECT or STUDY")
	browseCmd.Flags().IntVar(&flagPage, "page", 1, "page to request (fetched only when COCONET_PAGINATION_REFETCH is set)")
}

// buildServices wires the services against durable storage so a token
// stored by the web callback authenticates CLI requests too.
func buildServices(ctx context.Context) (*services.Services, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	openCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	store, closeStore, err := storage.Open(openCtx, cfg.StorageDriver, cfg.StoragePath, cfg.PostgresURL)
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening client storage: %w", err)
	}
	authCtx, err := auth.LoadContext(openCtx, store)
	if err != nil {
		closeStore()
		return nil, func() {}, err
	}
	svc, err := services.New(cfg, authCtx)
	if err != nil {
		closeStore()
		return nil, func() {}, err
	}
	return svc, closeStore, nil
}

func requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, cfg.RequestTimeout())
}

func runBrowse(cmd *cobra.Command, args []string) error {
	tab, err := listing.ParseTab(flagTab)
	if err != nil {
		return err
	}
	ordering, err := listing.ParseOrdering(cfg.Ordering)
	if err != nil {
		return err
	}
	svc, closeFn, err := buildServices(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	opts := []listing.Option{listing.WithLogger(logger.Named("listing")), listing.WithOrdering(ordering)}
	if cfg.PaginationRefetch {
		opts = append(opts, listing.WithPaginationRefetch(cfg.PageSize))
	}
	session := listing.NewController(svc.Articles, opts...)
	defer session.Close()

	task, err := applyFilters(session)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd.Context())
	defer cancel()
	if err := task.Wait(ctx); err != nil && !errors.Is(err, listing.ErrSuperseded) {
		logger.Warn("article fetch failed", zap.Error(err))
	}

	state := session.State()
	view := session.View(tab)
	if flagJSON {
		return printJSON(os.Stdout, map[string]any{"state": state, "view": view})
	}
	return printView(os.Stdout, state, view)
}

// applyFilters issues the fetches implied by the flags and returns the last
// one. Without filters it is the initial mount fetch.
func applyFilters(session *listing.Controller) (*listing.Task, error) {
	var task *listing.Task
	for _, s := range flagStacks {
		t, err := session.ToggleStack(s)
		if err != nil {
			return nil, fmt.Errorf("--stack %q: %w", s, err)
		}
		task = t
	}
	if flagPosition != "" {
		t, err := session.SelectPosition(flagPosition)
		if err != nil {
			return nil, fmt.Errorf("--position: %w", err)
		}
		task = t
	}
	if task == nil {
		task = session.Mount()
	}
	if flagPage > 1 {
		t, err := session.ChangePage(flagPage)
		if err != nil {
			return nil, fmt.Errorf("--page: %w", err)
		}
		if t != nil {
			task = t
		}
	}
	return task, nil
}
