// Command oscd sends and receives OSC messages over UDP, for poking at OSC
// devices from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/oscwire/osc"
	"github.com/oscwire/osc/server"
)

var (
	modeFlag       = flag.String("mode", "", "`mode` in which to run, must be one of \"send\" or \"receive\"")
	configFlag     = flag.String("config", "", "optional `path` to a TOML config file")
	listenAddrFlag = flag.String("listen_addr", "", "`host:port`: the address to listen on")
	sendAddrFlag   = flag.String("send_addr", "", "`host:port`: the address to send to")
	addressFlag    = flag.String("address", "", "OSC `address` to send a message to, in send mode")
	verboseFlag    = flag.Bool("v", false, "enable debug logging")
)

// config mirrors the flags so a device setup can live in a file; flags win
// when both are set.
type config struct {
	ListenAddr string   `toml:"listen_addr"`
	SendAddr   string   `toml:"send_addr"`
	Address    string   `toml:"address"`
	Patterns   []string `toml:"patterns"`
	Workers    int      `toml:"workers"`
}

func loadConfig(path string) (config, error) {
	cfg := config{
		ListenAddr: "127.0.0.1:0",
		Address:    "/test",
		Patterns:   []string{"/test", "/test/*"},
		Workers:    1,
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	if *listenAddrFlag != "" {
		cfg.ListenAddr = *listenAddrFlag
	}
	if *sendAddrFlag != "" {
		cfg.SendAddr = *sendAddrFlag
	}
	if *addressFlag != "" {
		cfg.Address = *addressFlag
	}
	return cfg, nil
}

func main() {
	flag.Parse()

	level := zerolog.InfoLevel
	if *verboseFlag {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Str("app", "oscd").Logger()

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("bad config")
	}

	ctx := context.Background()
	switch *modeFlag {
	case "send":
		err = send(cfg, log)
	case "receive":
		err = receive(ctx, cfg, log)
	default:
		log.Fatal().Str("mode", *modeFlag).Msg("unknown mode")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

func send(cfg config, log zerolog.Logger) error {
	conn, err := net.ListenPacket("udp", cfg.ListenAddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	var msg osc.Message
	if err := msg.SetAddress(cfg.Address); err != nil {
		return err
	}
	if err := msg.AddFloat32(440.0); err != nil {
		return err
	}
	if err := msg.AddString("oscd"); err != nil {
		return err
	}
	log.Info().Str("address", cfg.Address).Str("to", cfg.SendAddr).Msg("sending")
	return osc.Send(conn, cfg.SendAddr, &msg)
}

func receive(ctx context.Context, cfg config, log zerolog.Logger) error {
	conn, err := net.ListenPacket("udp", cfg.ListenAddr)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info().Stringer("addr", conn.LocalAddr()).Msg("listening")

	l := server.NewListener(conn, cfg.Workers)
	l.SetLogger(log)
	for _, p := range cfg.Patterns {
		if err := l.Handle(p, server.HandlerFunc(func(v *osc.View) error {
			ev := log.Info().
				Bytes("address", v.Address()).
				Bytes("tags", v.TypeTags())
			for i := 0; i < v.NumArgs(); i++ {
				key := fmt.Sprintf("arg%d", i)
				switch v.Tag(i) {
				case 'i':
					ev = ev.Int32(key, v.Int(i))
				case 'f':
					ev = ev.Float32(key, v.Float(i))
				case 's', 'S':
					ev = ev.Str(key, v.String(i))
				case 'h':
					ev = ev.Int64(key, v.Int64(i))
				case 'd':
					ev = ev.Float64(key, v.Double(i))
				case 'b':
					ev = ev.Hex(key, v.Blob(i))
				case 'T', 'F':
					ev = ev.Bool(key, v.Bool(i))
				case 't':
					ev = ev.Stringer(key, v.Timetag(i))
				default:
					ev = ev.Str(key, string(v.Tag(i)))
				}
			}
			ev.Msg("recv")
			return nil
		})); err != nil {
			return err
		}
	}
	return l.Serve(ctx)
}
