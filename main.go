package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/ledrace/api"
	"github.com/matt-g-everett/ledrace/race"
	"github.com/matt-g-everett/ledrace/stream"
	"github.com/matt-g-everett/ledrace/term"
	"github.com/matt-g-everett/ledrace/util"
)

type app struct {
	Config   stream.Config
	Plan     *race.Plan
	Client   mqtt.Client
	Streamer *stream.Streamer
	Api      *api.Api
}

func newApp() *app {
	a := new(app)
	return a
}

func (a *app) handleOnConnect(client mqtt.Client) {
	log.Println("Connected")
}

func (a *app) readConfig(configPath string, explicit bool) {
	if err := stream.LoadEnv(".env"); err != nil {
		log.Fatalf("Reading .env: %v", err)
	}

	if !explicit {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Printf("No %s, using defaults", configPath)
			configPath = ""
		}
	}

	var err error
	a.Config, err = stream.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Reading config: %v", err)
	}
}

func (a *app) connect() {
	options := mqtt.NewClientOptions().
		AddBroker(a.Config.Mqtt.URL).
		SetClientID(a.Config.Mqtt.ClientID).
		SetUsername(a.Config.Mqtt.Username).
		SetPassword(a.Config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetOnConnectHandler(a.handleOnConnect)
	a.Client = mqtt.NewClient(options)

	if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("Connecting to %s: %v", a.Config.Mqtt.URL, token.Error())
	}
}

func (a *app) buildAnimation() stream.Animation {
	memoizer := util.NewMemoizer()
	track, err := stream.NewTrack(a.Config.Strip.Pixels, len(a.Plan.Entities), a.Config.Strip.Glow, memoizer)
	if err != nil {
		log.Fatalf("Laying out the strip: %v", err)
	}
	backdrop := stream.NewBackdrop(track, a.Config.Strip.BackdropParticles, a.Config.Strip.Seed, memoizer)
	return stream.NewController(backdrop, track, a.Config.Strip.FadeInFrames)
}

func (a *app) run(ctx context.Context) {
	go func() {
		if err := a.Api.Serve(ctx); err != nil {
			log.Printf("API server: %v", err)
		}
	}()

	if err := a.Streamer.Run(ctx); err != nil {
		log.Printf("Race stopped: %v", err)
	}

	if a.Client != nil {
		a.Client.Disconnect(250)
	}
}

// options are the command line flags. Race flags given on the command line
// replace the config file's values, whatever they are.
type options struct {
	ConfigPath string
	Speed      float64
	Fps        int
	Labels     bool
	Mode       string
	Dry        bool
	Term       bool

	set map[string]bool
}

func parseOptions(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("ledrace", flag.ContinueOnError)
	fs.StringVar(&o.ConfigPath, "config", "config.yaml", "YAML config file.")
	fs.Float64Var(&o.Speed, "speed", race.DefaultPlaybackSpeed, "Playback speed multiplier (overrides config).")
	fs.IntVar(&o.Fps, "fps", race.DefaultFrameRate, "Frames per second (overrides config).")
	fs.BoolVar(&o.Labels, "labels", false, "Show loop counters (overrides config).")
	fs.StringVar(&o.Mode, "mode", "", "Finish mode: synchronized or independent (overrides config).")
	fs.BoolVar(&o.Dry, "dry", false, "Draw in the terminal only, without an MQTT broker.")
	fs.BoolVar(&o.Term, "term", false, "Also draw the race in the terminal.")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		o.set[f.Name] = true
	})
	return o, nil
}

// apply copies the race flags that were given into c.
func (o options) apply(c *stream.Config) {
	if o.set["speed"] {
		c.Race.PlaybackSpeed = o.Speed
	}
	if o.set["fps"] {
		c.Race.FrameRate = o.Fps
	}
	if o.set["labels"] {
		c.Race.Labels = o.Labels
	}
	if o.set["mode"] {
		c.Race.Mode = o.Mode
	}
}

func main() {
	// mqtt.DEBUG = log.New(os.Stdout, "", 0)
	mqtt.ERROR = log.New(os.Stdout, "", 0)

	// Parse command line parameters
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	// Read the config
	a := newApp()
	a.readConfig(opts.ConfigPath, opts.set["config"])
	opts.apply(&a.Config)

	// Plan before anything is opened so a bad race never starts
	plan, err := a.Config.Plan()
	if err != nil {
		log.Fatalf("Planning the race: %v", err)
	}
	a.Plan = plan
	log.Printf("Plan: %d entities, %d frames, mode %v", len(plan.Entities), plan.TotalFrames, plan.Mode)

	var publisher stream.Publisher
	if !opts.Dry {
		a.connect()
		publisher = stream.NewMqttPublisher(a.Client, a.Config.Mqtt.Qos)
	}

	hub := api.NewHub(plan)
	a.Api = api.NewApi(a.Config.Api.Addr, a.Config.Api.Static, plan, hub)
	a.Streamer = stream.NewStreamer(a.Config, plan, a.buildAnimation(), publisher)
	a.Streamer.AddObserver(hub)
	if opts.Dry || opts.Term {
		a.Streamer.AddObserver(term.NewRenderer(os.Stdout, plan, a.Config.Race.Labels, 60))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a.run(ctx)
}
