package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"
	_ "time/tzdata"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	"golang.org/x/sync/errgroup"

	"github.com/lox/sunsetcast/internal/api"
	"github.com/lox/sunsetcast/internal/forecast"
	"github.com/lox/sunsetcast/internal/imagegen"
	"github.com/lox/sunsetcast/internal/ingest"
	"github.com/lox/sunsetcast/internal/logging"
	"github.com/lox/sunsetcast/internal/models"
	"github.com/lox/sunsetcast/internal/publish"
	"github.com/lox/sunsetcast/internal/store"
)

type FTPFlags struct {
	Addr     string `name:"addr" env:"FTP_ADDR" help:"FTP host:port for the published forecast."`
	User     string `name:"user" env:"FTP_USER" help:"FTP user (anonymous when empty)."`
	Password string `name:"password" env:"FTP_PASSWORD" help:"FTP password."`
	Dir      string `name:"dir" env:"FTP_DIR" help:"Remote directory to upload into."`
}

func (f FTPFlags) config() publish.Config {
	return publish.Config{Addr: f.Addr, User: f.User, Password: f.Password, Dir: f.Dir}
}

type CLI struct {
	EnvFile   kongdotenv.ENVFileConfig `name:"env-file" optional:"" help:"Path to a .env file to load before parsing."`
	DB        string                   `name:"db" env:"SUNSETCAST_DB" default:"data/sunsetcast.db" help:"Path to the SQLite database."`
	Timezone  string                   `name:"timezone" env:"SUNSETCAST_TIMEZONE" default:"Europe/Madrid" help:"Display and scheduling timezone."`
	SpotsFile string                   `name:"spots-file" env:"SUNSETCAST_SPOTS_FILE" type:"path" help:"YAML list of spots to seed an empty database with."`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Refresh the forecast on a schedule and serve the HTTP API."`
	Once    OnceCmd    `cmd:"" help:"Fetch and evaluate the forecast once, then exit."`
	Spots   SpotsCmd   `cmd:"" help:"Manage viewing spots."`
	Publish PublishCmd `cmd:"" help:"Fetch once and upload forecast.json over FTP."`
}

// App holds the resources shared by every command.
type App struct {
	Store *store.Store
	Loc   *time.Location
}

func (a *App) scheduler() *ingest.Scheduler {
	fetcher := ingest.NewOpenMeteo(models.Valencia, a.Loc.String())
	return ingest.NewScheduler(a.Store, fetcher, a.Loc)
}

func open(cli *CLI) (*App, error) {
	loc, err := time.LoadLocation(cli.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cli.Timezone, err)
	}

	st, err := store.Open(cli.DB, loc)
	if err != nil {
		return nil, err
	}

	seed := models.DefaultSpots
	if cli.SpotsFile != "" {
		if seed, err = loadSpotsFile(cli.SpotsFile); err != nil {
			st.Close()
			return nil, err
		}
	}
	seeded, err := st.SeedSpots(seed)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("seed spots: %w", err)
	}
	if seeded {
		logging.Get().Infow("spots seeded", "count", len(seed))
	}

	return &App{Store: st, Loc: loc}, nil
}

type ServeCmd struct {
	Port      string        `name:"port" env:"PORT" default:"8080" help:"HTTP server port."`
	Refresh   time.Duration `name:"refresh" env:"SUNSETCAST_REFRESH" default:"1h" help:"Forecast refresh interval."`
	NoPoll    bool          `name:"no-poll" help:"Disable polling (server only, for local dev)."`
	ImagesDir string        `name:"images-dir" env:"SUNSETCAST_IMAGES_DIR" default:"data/images" help:"Banner cache directory."`
	OpenAIKey string        `name:"openai-key" env:"OPENAI_API_KEY" help:"Enables banner generation."`
	FTP       FTPFlags      `embed:"" prefix:"ftp-"`
}

func (c *ServeCmd) Run(app *App) error {
	log := logging.Get()

	sched := app.scheduler()
	if c.Refresh > 0 {
		sched.SetInterval(c.Refresh)
	}

	server := api.NewServer(app.Store, sched, c.Port, app.Loc)
	sched.OnRefresh(server.OnRefresh)

	cache := imagegen.NewCache(c.ImagesDir)
	var gen *imagegen.Generator
	if c.OpenAIKey != "" {
		g, err := imagegen.NewGenerator(c.OpenAIKey)
		if err != nil {
			return err
		}
		gen = g
		sched.SetImageGenerator(gen, cache, server.ImageGenMutex())
	} else {
		log.Info("banner generation disabled (no OPENAI_API_KEY)")
	}
	server.SetImages(gen, cache)

	if c.FTP.Addr != "" {
		pub := publish.NewPublisher(c.FTP.config(), app.Loc)
		sched.OnRefresh(func(snap *ingest.Snapshot) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := pub.Publish(ctx, snap); err != nil {
				log.Errorw("publish: upload failed", "error", err)
			}
		})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	if !c.NoPoll {
		g.Go(func() error { return sched.Run(ctx) })
	} else {
		log.Info("polling disabled (--no-poll)")
	}
	g.Go(func() error { return server.Run(ctx) })
	return g.Wait()
}

type OnceCmd struct {
	JSON bool `name:"json" help:"Print the full outlooks as JSON."`
}

func (c *OnceCmd) Run(app *App) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	snap, err := app.scheduler().Refresh(ctx)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Outlooks)
	}

	best := forecast.Best(snap.Outlooks)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tSUNSET\tSCORE\tCONF\tTYPE\tVERDICT")
	for i, o := range snap.Outlooks {
		marker := ""
		if i == best {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%d\t%d%%\t%s %s\t%s\n",
			o.Label, marker,
			forecast.FormatTime(o.Day.Sunset, app.Loc),
			o.Score.Total, o.Confidence,
			o.Type.Emoji, o.Type.Name,
			o.Verdict.Action)
	}
	return w.Flush()
}

type SpotsCmd struct {
	List   SpotsListCmd   `cmd:"" default:"1" help:"List viewing spots."`
	Add    SpotsAddCmd    `cmd:"" help:"Add a custom viewing spot."`
	Delete SpotsDeleteCmd `cmd:"" help:"Delete a viewing spot by id."`
}

type SpotsListCmd struct{}

func (c *SpotsListCmd) Run(app *App) error {
	spots, err := app.Store.ListSpots()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tLAT\tLNG")
	for _, s := range spots {
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%.4f\t%.4f\n", s.ID, s.Icon, s.Name, s.Type, s.Lat, s.Lng)
	}
	return w.Flush()
}

type SpotsAddCmd struct {
	Name string  `arg:"" help:"Spot name."`
	Lat  float64 `arg:"" help:"Latitude."`
	Lng  float64 `arg:"" help:"Longitude."`
}

func (c *SpotsAddCmd) Run(app *App) error {
	spot, err := app.Store.AddSpot(c.Name, c.Lat, c.Lng)
	if err != nil {
		return err
	}
	fmt.Println(spot.ID)
	return nil
}

type SpotsDeleteCmd struct {
	ID string `arg:"" help:"Spot id."`
}

func (c *SpotsDeleteCmd) Run(app *App) error {
	return app.Store.DeleteSpot(c.ID)
}

type PublishCmd struct {
	FTP FTPFlags `embed:"" prefix:"ftp-"`
}

func (c *PublishCmd) Run(app *App) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	snap, err := app.scheduler().Refresh(ctx)
	if err != nil {
		return err
	}
	return publish.NewPublisher(c.FTP.config(), app.Loc).Publish(ctx, snap)
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("sunsetcast"),
		kong.Description("Sunset quality forecast for Valencia."),
		kong.UsageOnError(),
	)
	defer logging.Sync()

	app, err := open(&cli)
	kctx.FatalIfErrorf(err)
	defer app.Store.Close()

	kctx.FatalIfErrorf(kctx.Run(app))
}
