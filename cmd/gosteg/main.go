// GoSteg: hide text in images.
//
// Usage:
//
//	gosteg hide -i <cover> -o <out.png> -m <message> [options]
//	gosteg reveal -i <image> [-o <file>] [options]
//	gosteg capacity -i <image> [options]
//	gosteg cover -o <file> [--pattern noise] [options]
//	gosteg serve [--port 8080]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoSteg/clients/server"
	"github.com/xob0t/GoSteg/internal/config"
	"github.com/xob0t/GoSteg/internal/logging"
	"github.com/xob0t/GoSteg/internal/version"
	"github.com/xob0t/GoSteg/pkg/container"
	"github.com/xob0t/GoSteg/pkg/generator"
	"github.com/xob0t/GoSteg/pkg/lsb"
	"github.com/xob0t/GoSteg/pkg/payload"
	"github.com/xob0t/GoSteg/pkg/stego"
)

// Exit code for "no hidden message", distinct from usage and I/O errors.
const exitNoMessage = 2

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "hide":
		err = runHide(os.Args[2:], os.Stdout)
	case "reveal":
		err = runReveal(os.Args[2:], os.Stdout)
	case "capacity":
		err = runCapacity(os.Args[2:], os.Stdout)
	case "cover":
		err = runCover(os.Args[2:], os.Stdout)
	case "serve":
		err = server.RunServe(os.Args[2:])
	case "version":
		fmt.Println("gosteg", version.String())
	case "help", "-h", "--help":
		printUsage()
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}

	if errors.Is(err, lsb.ErrNoMessage) {
		fmt.Fprintln(os.Stderr, "No hidden message found or image is invalid")
		os.Exit(exitNoMessage)
	}
	if err != nil {
		fatal(err)
	}
}

// layoutFlags are shared by every command that reads or writes hidden data.
type layoutFlags struct {
	configPath string
	order      string
	framing    string
	marker     string
	compress   string
	logLevel   string
}

func (lf *layoutFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&lf.configPath, "config", "", "Path to .json/.yaml config file")
	fs.StringVar(&lf.order, "order", "", "Channel order, e.g. RGB, BGR, G (default: RGB)")
	fs.StringVar(&lf.framing, "framing", "", "Message framing: length or sentinel (default: length)")
	fs.StringVar(&lf.marker, "marker", "", "Sentinel marker as hex (default: 00)")
	fs.StringVar(&lf.compress, "compress", "", "Payload codec: "+fmt.Sprint(payload.Names()))
	fs.StringVar(&lf.logLevel, "log-level", "", "Log level (default: info)")
}

// resolve merges the config file with flags; flags win.
func (lf *layoutFlags) resolve() (*config.Config, stego.Options, *logrus.Logger, error) {
	cfg := config.Default()
	if lf.configPath != "" {
		var err error
		if cfg, err = config.Load(lf.configPath); err != nil {
			return nil, stego.Options{}, nil, err
		}
	}
	if lf.order != "" {
		cfg.Layout.Order = lf.order
	}
	if lf.framing != "" {
		cfg.Layout.Framing = lf.framing
	}
	if lf.marker != "" {
		cfg.Layout.Marker = lf.marker
	}
	if lf.compress != "" {
		cfg.Compression = lf.compress
	}
	if lf.logLevel != "" {
		cfg.Log.Level = lf.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, stego.Options{}, nil, err
	}

	o, err := cfg.StegoOptions()
	if err != nil {
		return nil, stego.Options{}, nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, stego.Options{}, nil, err
	}
	return cfg, o, log, nil
}

func runHide(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("hide", flag.ContinueOnError)

	var (
		input       string
		output      string
		message     string
		messageFile string
		lf          layoutFlags
	)
	fs.StringVar(&input, "i", "", "Cover image (png, bmp, tiff, jpeg, gif, webp)")
	fs.StringVar(&input, "input", "", "Cover image")
	fs.StringVar(&output, "o", "secret_image.png", "Output image (.png, .bmp or .tiff)")
	fs.StringVar(&output, "output", "secret_image.png", "Output image")
	fs.StringVar(&message, "m", "", "Message text")
	fs.StringVar(&message, "message", "", "Message text")
	fs.StringVar(&messageFile, "message-file", "", "Read the message from a file ('-' for stdin)")
	lf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if input == "" {
		return fmt.Errorf("cover image is required (-i)")
	}

	var msg []byte
	switch {
	case messageFile == "-":
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		msg = b
	case messageFile != "":
		b, err := os.ReadFile(messageFile)
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		msg = b
	default:
		msg = payload.FromText(message)
	}

	_, o, log, err := lf.resolve()
	if err != nil {
		return err
	}
	f, err := container.FormatFromExt(output)
	if err != nil {
		return err
	}
	if !f.Lossless() {
		return fmt.Errorf("%w: %s would destroy the hidden bits, use .png, .bmp or .tiff", container.ErrLossyFormat, output)
	}
	o.Output = f

	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read cover: %w", err)
	}

	res, err := stego.Hide(src, msg, o)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, res.Data, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.WithFields(logrus.Fields{
		"source_format": res.SourceFormat,
		"used_bits":     res.UsedBits,
		"capacity_bits": res.CapacityBits,
	}).Debug("Message embedded")
	fmt.Fprintf(stdout, "Hidden %d bytes in %dx%d image (%d of %d bits): %s\n",
		len(msg), res.Width, res.Height, res.UsedBits, res.CapacityBits, output)
	return nil
}

func runReveal(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("reveal", flag.ContinueOnError)

	var (
		input  string
		output string
		lf     layoutFlags
	)
	fs.StringVar(&input, "i", "", "Image with a hidden message")
	fs.StringVar(&input, "input", "", "Image with a hidden message")
	fs.StringVar(&output, "o", "", "Write the raw message to a file instead of printing it")
	fs.StringVar(&output, "output", "", "Write the raw message to a file")
	lf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if input == "" {
		return fmt.Errorf("image is required (-i)")
	}
	_, o, log, err := lf.resolve()
	if err != nil {
		return err
	}

	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	rev, err := stego.Reveal(src, o)
	if err != nil {
		return err
	}
	if rev.LossySource {
		log.Warnf("%s is a lossy format; the message is probably corrupt", rev.SourceFormat)
	}

	if output != "" {
		if err := os.WriteFile(output, rev.Message, 0644); err != nil {
			return fmt.Errorf("write message: %w", err)
		}
		fmt.Fprintf(stdout, "Wrote %d bytes: %s\n", len(rev.Message), output)
		return nil
	}

	text, err := payload.ToText(rev.Message)
	if err != nil {
		return fmt.Errorf("%w (use -o to save the raw bytes)", err)
	}
	fmt.Fprintln(stdout, text)
	return nil
}

func runCapacity(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("capacity", flag.ContinueOnError)

	var (
		input   string
		asJSON  bool
		message string
		lf      layoutFlags
	)
	fs.StringVar(&input, "i", "", "Image to inspect")
	fs.StringVar(&input, "input", "", "Image to inspect")
	fs.BoolVar(&asJSON, "json", false, "Print JSON")
	fs.StringVar(&message, "m", "", "Check whether this message fits (after compression)")
	lf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if input == "" {
		return fmt.Errorf("image is required (-i)")
	}
	_, o, _, err := lf.resolve()
	if err != nil {
		return err
	}

	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	info, err := stego.Inspect(src, o)
	if err != nil {
		return err
	}

	fits := -1 // unknown
	if message != "" {
		packed, err := payload.Pack(payload.FromText(message), o.Compression)
		if err != nil {
			return err
		}
		fits = len(packed)
	}

	if asJSON {
		out := map[string]interface{}{
			"format":         info.Format,
			"width":          info.Width,
			"height":         info.Height,
			"lossy":          info.Lossy,
			"capacity_bits":  info.CapacityBits,
			"capacity_bytes": info.CapacityBytes,
		}
		if fits >= 0 {
			out["message_bytes"] = fits
			out["fits"] = fits <= info.CapacityBytes
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(stdout, "Image:    %dx%d %s\n", info.Width, info.Height, info.Format)
	fmt.Fprintf(stdout, "Capacity: %d bytes (%d bits)\n", info.CapacityBytes, info.CapacityBits)
	if info.Lossy {
		fmt.Fprintln(stdout, "Warning:  lossy source; hide writes a lossless copy, never re-save it lossy")
	}
	if fits >= 0 {
		verdict := "fits"
		if fits > info.CapacityBytes {
			verdict = "does NOT fit"
		}
		fmt.Fprintf(stdout, "Message:  %d bytes, %s\n", fits, verdict)
	}
	return nil
}

func runCover(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("cover", flag.ContinueOnError)

	var (
		output   string
		width    int
		height   int
		color    string
		pattern  string
		caption  string
		fontPath string
		seed     uint64
	)
	fs.StringVar(&output, "o", "", "Output file path (.png, .bmp or .tiff)")
	fs.StringVar(&output, "output", "", "Output file path")
	fs.IntVar(&width, "w", 1280, "Width in pixels")
	fs.IntVar(&width, "width", 1280, "Width in pixels")
	fs.IntVar(&height, "h", 720, "Height in pixels")
	fs.IntVar(&height, "height", 720, "Height in pixels")
	fs.StringVar(&color, "color", "random", "Base color: hex or 'random'")
	fs.StringVar(&pattern, "pattern", "noise", "solid, gradient or noise")
	fs.StringVar(&caption, "caption", "", "Text drawn near the bottom edge")
	fs.StringVar(&fontPath, "font", "", "TTF/OTF font for the caption")
	fs.Uint64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if output == "" {
		return fmt.Errorf("output file is required (-o)")
	}

	cfg := generator.Config{
		Width:    width,
		Height:   height,
		Color:    color,
		Pattern:  pattern,
		Caption:  caption,
		FontPath: fontPath,
		Seed:     seed,
	}
	if err := generator.Generate(output, cfg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Done: %s\n", output)
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`GoSteg: Hide text in images (Pure Go)

USAGE:
    gosteg hide -i <cover> -o <out.png> -m <message> [options]
    gosteg reveal -i <image> [-o <file>] [options]
    gosteg capacity -i <image> [-m <message>] [--json] [options]
    gosteg cover -o <file> [cover options]
    gosteg serve [--port 8080] [--config <file>]
    gosteg version

HIDE:
    -i, --input <path>       Cover image (png, bmp, tiff, jpeg, gif, webp)
    -o, --output <path>      Output image, lossless only (default: secret_image.png)
    -m, --message <text>     Message text
    --message-file <path>    Read the message from a file ('-' for stdin)

REVEAL:
    -i, --input <path>       Image with a hidden message
    -o, --output <path>      Save the raw message instead of printing it

LAYOUT OPTIONS (hide, reveal and capacity must agree):
    --order <RGB>            Channels carrying data, in order
    --framing <length>       length (32-bit prefix) or sentinel (uncompressed only)
    --marker <hex>           Sentinel bytes (default: 00)
    --compress <codec>       none, gzip, deflate, zstd or brotli
    --config <path>          JSON or YAML config file

COVER:
    -o, --output <path>      Output file (.png, .bmp or .tiff)
    --pattern <noise>        solid, gradient or noise
    --color <hex>            Base color or 'random' (default: random)
    -w, --width <px>         Width in pixels (default: 1280)
    -h, --height <px>        Height in pixels (default: 720)
    --caption <text>         Caption near the bottom edge
    --seed <n>               Reproducible noise and colors

EXAMPLES:
    gosteg cover -o cover.png --seed 42
    gosteg hide -i cover.png -o secret_image.png -m "meet at noon"
    gosteg reveal -i secret_image.png
    gosteg hide -i photo.jpg -o out.png --message-file notes.txt --compress zstd
    gosteg reveal -i out.png --compress zstd
    gosteg serve --port 8080
`)
}
