// Command manage runs maintenance tasks against the storefront database.
//
//	manage create-order [--user admin] [--address ...] [--promocode ...]
//	manage create-article --author NAME --category NAME [--title ...] [--content ...]
//	manage bind-user --user NAME [--group profile_manager] [--group-perm view_profile] [--perm view_order]
//	manage select-fields
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"storefront/config"
	"storefront/models"
	"storefront/repositories"
	"storefront/services"
)

type command struct {
	summary string
	run     func(ctx context.Context, svc *services.SeedService, args []string) error
}

var commands = map[string]command{
	"create-order":   {"link every product to an order of a user", createOrder},
	"create-article": {"create an article carrying every tag", createArticle},
	"bind-user":      {"add a user to a group and grant a permission", bindUser},
	"select-fields":  {"print pk and name of every product", selectFields},
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: manage <command> [flags]")
	for _, name := range []string{"create-order", "create-article", "bind-user", "select-fields"} {
		fmt.Fprintf(os.Stderr, "  %-15s %s\n", name, commands[name].summary)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(2)
	}

	config.LoadConfig()
	config.SetupLogger(config.AppConfig.AppEnv, config.AppConfig.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.ConnectDB(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	defer config.CloseDB()

	if err := config.RunMigrations(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	svc := services.NewSeedService(
		repositories.NewProductRepository(config.DB),
		repositories.NewOrderRepository(config.DB),
		repositories.NewUserRepository(config.DB),
		repositories.NewArticleRepository(config.DB),
	)
	if err := cmd.run(ctx, svc, os.Args[2:]); err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("command failed")
		config.CloseDB()
		os.Exit(1)
	}
}

func createOrder(ctx context.Context, svc *services.SeedService, args []string) error {
	fs := pflag.NewFlagSet("create-order", pflag.ExitOnError)
	seed := services.OrderSeed{}
	fs.StringVar(&seed.Username, "user", "admin", "owner of the order")
	fs.StringVar(&seed.DeliveryAddress, "address", "ul Ivankovo, d 10", "delivery address")
	fs.StringVar(&seed.Promocode, "promocode", "promo1", "promocode")
	if err := fs.Parse(args); err != nil {
		return err
	}

	o, created, err := svc.SeedOrder(ctx, seed)
	if err != nil {
		return err
	}
	log.Info().Int("order_id", o.ID).Bool("created", created).Int("products", len(o.Products)).Msg("order ready")
	return nil
}

func createArticle(ctx context.Context, svc *services.SeedService, args []string) error {
	fs := pflag.NewFlagSet("create-article", pflag.ExitOnError)
	seed := services.ArticleSeed{}
	fs.StringVar(&seed.Title, "title", "my info job", "article title")
	fs.StringVar(&seed.Content, "content", "my info job notes", "article body")
	fs.StringVar(&seed.Author, "author", "", "author name")
	fs.StringVar(&seed.Category, "category", "", "category name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, created, err := svc.SeedArticle(ctx, seed)
	if err != nil {
		return err
	}
	log.Info().Int("article_id", a.ID).Bool("created", created).Int("tags", len(a.Tags)).Msg("article ready")
	return nil
}

func bindUser(ctx context.Context, svc *services.SeedService, args []string) error {
	fs := pflag.NewFlagSet("bind-user", pflag.ExitOnError)
	username := fs.String("user", "", "username")
	group := fs.String("group", "profile_manager", "group to join")
	groupPerms := fs.StringSlice("group-perm", []string{models.PermViewProfile}, "permissions of the group")
	perm := fs.String("perm", models.PermViewOrder, "permission granted to the user directly")
	if err := fs.Parse(args); err != nil {
		return err
	}

	g, err := svc.BindUser(ctx, *username, *group, *groupPerms, *perm)
	if err != nil {
		return err
	}
	log.Info().Str("user", *username).Str("group", g.Name).Int("group_id", g.ID).Msg("user bound")
	return nil
}

func selectFields(ctx context.Context, svc *services.SeedService, args []string) error {
	fs := pflag.NewFlagSet("select-fields", pflag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	names, err := svc.ProductNames(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	for _, n := range names {
		if err := enc.Encode(n); err != nil {
			return err
		}
	}
	return nil
}
